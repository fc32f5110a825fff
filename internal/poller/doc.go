// Package poller provides the HTTP plumbing shared by the sync client and
// the load generator.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limit
//   - [Pool]: bounded worker pool that runs one round of tasks to completion
//   - [TaskResult]: typed outcome of a single pooled task
//
// Users of the feedprobe library should not need to interact with this
// package directly.
package poller
