// Package thumbnail runs on-device thumbnail generation in a worker pool.
//
// Callers submit a job (source URL and target long edge) and block on a
// private reply channel. A worker downloads the source, decodes it (libvips
// with decode-time shrinking when available, imaging otherwise), fits it to
// the target and replies with tightly packed pixels plus a JPEG encoding.
// The pixel buffer is handed over without copying; the worker keeps no
// reference to it.
package thumbnail
