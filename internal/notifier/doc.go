// Package notifier sends short operator messages (trigger armed, trigger
// fired, shutdown failed) to a remote chat.
//
// Delivery is asynchronous: Notify enqueues and returns. A single worker
// drains the queue through a rate limiter and retries failed sends with
// jittered exponential backoff. The same Service doubles as the remote sink
// for pkg/logx so warnings can reach the operator too.
package notifier
