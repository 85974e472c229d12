// Package pebblestore provides a thin wrapper around Pebble with fsync
// policy, batches, iterators, and compaction, plus a reference-counted
// registry for sharing one store across queue instances.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeAlways,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic updates with batches
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
// When several queues live in one process, acquire the store through a
// Shared registry instead so it is opened once and closed after the last
// Release:
//
//	db, _ := pebblestore.DefaultShared.Acquire(opts)
//	defer pebblestore.DefaultShared.Release(ctx, opts.DataDir)
package pebblestore
