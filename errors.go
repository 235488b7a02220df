package librsync

import "github.com/pkg/errors"

// SignatureParseError indicates that encoded signature bytes could not be
// parsed: a bad magic, an invalid header field, or a truncated or
// overlong body.
type SignatureParseError struct {
	// Reason is a human-readable description of what was wrong.
	Reason string
}

func (e *SignatureParseError) Error() string {
	return "invalid signature: " + e.Reason
}

func newSignatureParseError(reason string) error {
	return errors.WithStack(&SignatureParseError{Reason: reason})
}

// SignatureBuildError indicates that CalculateSignature was given options
// that cannot be satisfied, such as a zero block size.
type SignatureBuildError struct {
	Reason string
}

func (e *SignatureBuildError) Error() string {
	return "unable to build signature: " + e.Reason
}

func newSignatureBuildError(reason string) error {
	return errors.WithStack(&SignatureBuildError{Reason: reason})
}

// DeltaParseError indicates that encoded delta bytes could not be parsed:
// a bad magic, an unknown opcode, a truncated command, a missing END, or
// trailing bytes after END. Diff also returns it when given a nil
// *IndexedSignature.
type DeltaParseError struct {
	Reason string
}

func (e *DeltaParseError) Error() string {
	return "invalid delta: " + e.Reason
}

func newDeltaParseError(reason string) error {
	return errors.WithStack(&DeltaParseError{Reason: reason})
}

// ApplyErrorKind distinguishes the ways that Apply can fail on adversarial
// or malformed input.
type ApplyErrorKind int

const (
	// ApplyErrorCopyOutOfBounds indicates that a COPY command referenced a
	// range outside the reference buffer.
	ApplyErrorCopyOutOfBounds ApplyErrorKind = iota
	// ApplyErrorOutputLimitExceeded indicates that applying the delta would
	// produce more output than the caller's limit allows.
	ApplyErrorOutputLimitExceeded
	// ApplyErrorOverflow indicates that a length or offset computation
	// overflowed.
	ApplyErrorOverflow
)

func (k ApplyErrorKind) String() string {
	switch k {
	case ApplyErrorCopyOutOfBounds:
		return "copy out of bounds"
	case ApplyErrorOutputLimitExceeded:
		return "output limit exceeded"
	case ApplyErrorOverflow:
		return "arithmetic overflow"
	default:
		return "unknown apply error"
	}
}

// ApplyError indicates that Apply or ApplyLimited failed to reconstruct a
// target buffer from a reference and a delta.
type ApplyError struct {
	Kind   ApplyErrorKind
	Reason string
}

func (e *ApplyError) Error() string {
	return "unable to apply delta: " + e.Kind.String() + ": " + e.Reason
}

func newApplyError(kind ApplyErrorKind, reason string) error {
	return errors.WithStack(&ApplyError{Kind: kind, Reason: reason})
}
