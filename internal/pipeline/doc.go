// Package pipeline resolves the images the streaming engine draws.
//
// A thumbnail is resolved by trying three tiers in order, each failure
// falling through to the next:
//
//  1. remote: a pre-built thumbnail is fetched and decoded, then stored
//     locally for next time
//  2. cache: the local store is consulted; an unavailable store is a miss
//  3. generate: a worker builds the thumbnail from the full source; the
//     result is stored locally and uploaded in the background
//
// Only when all three fail does the result carry an error. Tiers are never
// retried automatically.
//
// Full-resolution promotion downloads and decodes the source. When either
// dimension exceeds the renderer's maximum texture size, the image is cut
// into a grid of tiles in parallel, each tile carrying its place inside the
// parent box as fractions.
//
// The pipeline never mutates items. It works on request snapshots and
// returns decoded data; render resources are created by the caller on the
// frame driver.
package pipeline
