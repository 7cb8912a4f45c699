// Package async provides safe background execution for asynchronous decisions.
//
// SafeGo runs a Task on its own goroutine with panic recovery, an optional
// timeout and failure reporting. Authorization gates use it to evaluate role
// checks without blocking the caller; a panic inside an evaluation is turned
// into an ErrPanic failure so the gate can fail closed.
//
//	async.SafeGo(ctx, logger, async.Task{
//		Name:      "gate evaluation",
//		Run:       evaluate,
//		OnFailure: func(err error) { deny() },
//	})
package async
