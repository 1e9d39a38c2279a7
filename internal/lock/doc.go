// Package lock enforces single-instance execution via an advisory file
// lock. A second pipeline invocation blocks briefly waiting for the first to
// finish, then gives up with services.ErrLockContention so overlapping runs
// never race on the execution log or the download directories.
package lock
