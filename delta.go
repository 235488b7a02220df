package librsync

import (
	"bytes"
	"encoding/binary"

	"github.com/rsyncgo/librsync/internal/logging"
	"github.com/rsyncgo/librsync/internal/md4"
	"github.com/rsyncgo/librsync/internal/rollsum"
)

// maxCandidatesPerWeak bounds how many strong-hash comparisons Diff will
// perform for a single weak-checksum bucket before giving up on a match at
// the current position. Without this cap, an adversarial reference engineered
// so that many blocks collide on the same rolling checksum could force a
// linear scan of the candidate list at every target byte, degrading the
// encoder from its expected linear running time toward quadratic.
const maxCandidatesPerWeak = 32

// defaultDiffLogger is used by Diff; it discards everything. Callers that
// want Trace/Debug diagnostics from the encoder use DiffWithLogger.
var defaultDiffLogger = logging.Disabled

// Diff computes the librsync-legacy delta that transforms the reference
// buffer described by indexed into target. Diagnostics are discarded; use
// DiffWithLogger to observe them.
func Diff(indexed *IndexedSignature, target []byte) ([]byte, error) {
	return DiffWithLogger(indexed, target, defaultDiffLogger)
}

// DiffWithLogger is Diff with an explicit diagnostic logger. It emits a
// Trace message each time the collision cap is tripped and a Debug summary
// of the command counts once encoding finishes. Logging never affects the
// produced bytes.
func DiffWithLogger(indexed *IndexedSignature, target []byte, logger *logging.Logger) ([]byte, error) {
	if indexed == nil {
		return nil, newDeltaParseError("nil signature index")
	}
	if logger == nil {
		logger = logging.Disabled
	}

	cmds := make([]byte, 0, len(target)/4+16)

	blockSize := int(indexed.BlockSize)
	n := len(target)

	if indexed.isEmpty() || blockSize <= 0 || n == 0 {
		cmds = appendLiteral(cmds, target)
		cmds = appendEnd(cmds)
		return frameDelta(cmds), nil
	}

	var (
		literalStart    = 0
		copyCount       = 0
		literalCount    = 0
		collisions      = 0
		havePendingCopy = false
		pendingOffset   uint64
		pendingLength   uint64
	)

	// flushLiteral emits target[literalStart:through] as a LITERAL command,
	// if non-empty, and advances literalStart past it.
	flushLiteral := func(through int) {
		if literalStart < through {
			cmds = appendLiteral(cmds, target[literalStart:through])
			literalCount++
		}
		literalStart = through
	}

	// flushPendingCopy emits the accumulated run of contiguous matched
	// blocks as a single coalesced COPY command, per spec.md §4.4.
	flushPendingCopy := func() {
		if havePendingCopy {
			cmds = appendCopy(cmds, pendingOffset, pendingLength)
			copyCount++
			havePendingCopy = false
		}
	}

	windowLen := blockSize
	if windowLen > n {
		windowLen = n
	}
	roll := rollsum.New(target[0:windowLen])

	i := 0
	for i < n {
		remaining := n - i
		if windowLen > remaining {
			windowLen = remaining
			roll = rollsum.New(target[i : i+windowLen])
		}

		window := target[i : i+windowLen]
		weak := roll.Digest()
		matched := false

		candidates := indexed.candidatesFor(weak)
		if len(candidates) > 0 {
			var strong [md4.Size]byte
			haveStrong := false
			tries := 0
			for _, candidate := range candidates {
				if tries >= maxCandidatesPerWeak {
					collisions++
					logger.Tracef("collision cap reached at target offset %d (weak=%08x)", i, weak)
					break
				}
				tries++
				if !haveStrong {
					strong = md4.Sum(window)
					haveStrong = true
				}
				if bytes.Equal(strong[:len(candidate.strong)], candidate.strong) {
					flushLiteral(i)

					offset := candidate.index * uint64(blockSize)
					if havePendingCopy && pendingOffset+pendingLength == offset {
						pendingLength += uint64(windowLen)
					} else {
						flushPendingCopy()
						havePendingCopy = true
						pendingOffset = offset
						pendingLength = uint64(windowLen)
					}

					i += windowLen
					literalStart = i
					matched = true

					if i < n {
						windowLen = blockSize
						if windowLen > n-i {
							windowLen = n - i
						}
						roll = rollsum.New(target[i : i+windowLen])
					}
					break
				}
			}
		}

		if matched {
			continue
		}

		// A non-matching byte breaks contiguity with any pending copy run.
		flushPendingCopy()

		if i+windowLen < n {
			roll.Roll(target[i], target[i+windowLen])
			i++
			continue
		}

		i++
		if i < n {
			windowLen = blockSize
			if windowLen > n-i {
				windowLen = n - i
			}
			roll = rollsum.New(target[i : i+windowLen])
		}
	}

	flushPendingCopy()
	flushLiteral(n)
	cmds = appendEnd(cmds)

	logger.Debugf("diff: %d copy, %d literal, %d collision-cap trips, %d bytes", copyCount, literalCount, collisions, len(cmds))

	return frameDelta(cmds), nil
}

// frameDelta prepends the delta magic to an encoded command stream.
func frameDelta(cmds []byte) []byte {
	out := make([]byte, 4+len(cmds))
	binary.BigEndian.PutUint32(out[0:4], deltaMagic)
	copy(out[4:], cmds)
	return out
}
