// Package scheduler implements the bounded-concurrency request queue that
// turns items needing thumbnails into in-flight resolutions.
//
// Items are enqueued once while they are placeholders. Admit moves the
// highest-priority ones to Loading until the concurrency budget is spent,
// visible items first. Each completion frees a slot and immediately admits
// the next item, so the queue drains itself without waiting for a frame.
//
// The queue is re-prioritized on every admission pass by a stable partition
// on the visibility flag; no priority heap is maintained. Under memory
// pressure a Throttle can shrink the budget to a single request.
package scheduler
