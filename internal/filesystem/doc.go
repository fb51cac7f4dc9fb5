/*
Package filesystem provides local file reads that survive stale NFS file
handles.

Galleries are often served from network mounts. When a file is replaced on
the server, open handles go stale and the next operation fails with ESTALE
(errno 116) even though a fresh attempt would succeed. [Stat], [Open] and
[ReadFile] retry exactly that error with capped exponential backoff and
return every other error unchanged. Waits between attempts end early when
the context is cancelled.

	data, err := filesystem.ReadFile(ctx, path, filesystem.DefaultRetryConfig())

# Metrics

A [VolumeResolver] labels each path with the volume it lives on ("media",
"cache") using longest-prefix matching. Stale errors and retry outcomes are
reported to the [Observer] installed with [SetObserver]; the metrics package
provides the Prometheus implementation.
*/
package filesystem
