// Package book implements the deterministic single-symbol matching core:
// two price ladders, the per-level FIFO of resting orders, the id index for
// O(1) cancel/modify, and the price-time priority cross-and-sweep. The core
// is single-writer and allocation-light; everything around it (journaling,
// snapshots, publication) lives in other packages and talks to the core
// through its public operations and the EventLogger sink.
package book
