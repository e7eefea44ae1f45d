// Package memory provides the allocation primitives under the matching
// engine: a typed object pool for order nodes and a lock-free SPSC ring used
// to hand events off the matching thread. The package is dependency-free.
package memory
