// Package librsync implements the rsync differential-encoding algorithm
// in memory, producing and consuming the librsync "legacy" wire format
// (MD4-based signatures and deltas).
//
// A typical session: compute a signature of a reference buffer with
// CalculateSignature, index it with IndexSignature, compute a delta against
// a new version of the data with Diff, and reconstruct the new version
// elsewhere with Apply given the original reference and the delta.
package librsync
