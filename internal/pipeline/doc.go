// Package pipeline implements the Pipeline Coordinator.
//
// Each inbound post moves through:
//
//	RECEIVED -> REJECTED (no price)
//	         -> EXTRACTED -> DEDUP_CHECKED -> DROPPED (same as latest)
//	                                       -> ACCEPTED (stored, then broadcast)
//	                                       -> FAILED (storage error)
//
// Posts are processed one at a time in arrival order by a single goroutine.
// Failures are logged and counted; they never reach the feed.
package pipeline
