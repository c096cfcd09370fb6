// Package worker implements the execution side of the worker protocol and
// the transports that carry it.
//
// A Runtime loads a generation capability once, announces readiness once and
// then answers requests one at a time. Because each runtime serializes its own
// requests, every worker applies natural back-pressure without an explicit
// queue.
//
// Two transports are provided:
//
//   - NewLocal runs a Runtime on its own goroutine. Only encoded frames cross
//     the boundary, so the runtime shares no memory with the pool.
//   - StartProcess runs a Runtime in a child process (see ServeStdio) and
//     exchanges length-prefixed frames over its stdin and stdout.
//
// Both satisfy Worker, which is all the pool package depends on.
package worker
