package cotaridx

import "errors"

// Sentinel errors returned by cotaridx operations.
//
// Callers should use [errors.Is] to classify errors rather than comparing
// error strings.
var (
	// ErrInvalidMagic indicates the image's header (or footer) magic bytes
	// do not match the COTAR v2 constant.
	ErrInvalidMagic = errors.New("cotaridx: invalid magic")

	// ErrTruncatedIndex indicates the image is shorter than its header
	// claims, or the footer does not match the header.
	ErrTruncatedIndex = errors.New("cotaridx: truncated index")

	// ErrDuplicateFingerprint indicates Builder.Add/Link was given a path
	// whose 64-bit fingerprint is already staged: the same path added twice,
	// or two distinct paths that hash alike.
	ErrDuplicateFingerprint = errors.New("cotaridx: duplicate fingerprint")

	// ErrMissingLinkTarget indicates Builder.Link referenced a target path
	// that has no prior Add/Link entry.
	ErrMissingLinkTarget = errors.New("cotaridx: missing link target")

	// ErrInvalidPackingFactor indicates Builder.Pack was called with a
	// packing factor below 1.0.
	ErrInvalidPackingFactor = errors.New("cotaridx: invalid packing factor")

	// ErrTooLarge indicates the computed slot count would not fit in 32 bits.
	ErrTooLarge = errors.New("cotaridx: too large")

	// ErrLoopDetected indicates linear probing wrapped all the way around
	// the slot table without finding an empty slot - a builder bug, since
	// Pack always allocates at least as many slots as entries.
	ErrLoopDetected = errors.New("cotaridx: loop detected")

	// ErrZeroFingerprint indicates a path hashed to the reserved empty
	// sentinel (0). Astronomically unlikely with FNV-1a-64, but rejected
	// rather than silently misused as an empty marker.
	ErrZeroFingerprint = errors.New("cotaridx: path hashes to reserved fingerprint 0")

	// ErrBadOffsetAlignment indicates Builder.Add was given a file offset
	// that is not a multiple of the tar block size (512).
	ErrBadOffsetAlignment = errors.New("cotaridx: file offset not block-aligned")
)
