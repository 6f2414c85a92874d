// Package cotaridx implements the COTAR v2 index: a deterministic,
// open-addressed hash table that maps tar member paths to byte ranges.
//
// cotaridx is not a database. The index is built once from a tar's member
// list and never mutated; opening it for writes again is not supported -
// rebuild from the source tar instead.
//
// # Basic usage
//
//	b := cotaridx.NewBuilder()
//	b.Add("tiles/0/0/0.pbf", 512, 19)
//	img, stats, err := b.Pack(1.5)
//
//	r, err := cotaridx.OpenSidecar("tiles.tar", "tiles.tar.index")
//	defer r.Close()
//	entry, err := r.Info("tiles/0/0/0.pbf")
//
// # Error handling
//
// [Builder.Pack] returns [ErrInvalidPackingFactor], [ErrTooLarge], or
// [ErrLoopDetected] on build-time failures. [OpenEmbedded] and
// [OpenSidecar] return [ErrInvalidMagic] or [ErrTruncatedIndex] when the
// on-disk image is malformed. [Reader.Info] and [Reader.Get] return
// (nil, nil) for an absent path; any non-nil error is an I/O failure.
package cotaridx
