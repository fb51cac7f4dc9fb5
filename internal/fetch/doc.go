// Package fetch is the network collaborator of the streaming engine.
//
// Client.Fetch retrieves bytes over HTTP(S), or from disk for file:// URLs
// and bare paths. Transient failures (network errors, 5xx, 429) are retried
// with capped exponential backoff; client errors fail immediately. Every
// failure is an *asset.FetchError.
//
// Uploader pushes generated thumbnails to a remote store with HTTP PUT.
// The pipeline calls it fire-and-forget and only logs failures.
package fetch
