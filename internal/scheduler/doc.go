// Package scheduler provides the single-owner loop that serializes every
// mutation of the catalog, the active selection and the modal queue.
//
// Work is posted as closures and executed one at a time in FIFO order by Run.
// Blocking I/O never runs on the loop: Await runs it on a goroutine and posts
// the continuation back, so other tasks only interleave at those points.
//
//	loop := scheduler.New(logger)
//	go loop.Run(ctx)
//
//	scheduler.Await(loop, fetch, func(res result) {
//		// back on the loop
//	})
package scheduler
