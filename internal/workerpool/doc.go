// Package workerpool provides the blocking execution lane: a fixed number of
// worker goroutines fed through a bounded queue.
//
// Admission is gated by a weighted semaphore sized to the queue capacity, so
// a submitter blocks without polling while the queue is full and gives up as
// soon as its context ends. Once admitted, a task always runs to completion
// on exactly one worker. A panicking task is recovered and reported to its
// submitter; the worker keeps serving.
//
// Example usage:
//
//	pool := workerpool.New(4, 64)
//	defer pool.Close()
//
//	err := pool.Do(ctx, func() {
//		// blocking work
//	})
package workerpool
