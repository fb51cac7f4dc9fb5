// Package handlers provides the HTTP control and status API of the gallery.
//
// It includes handlers for:
//   - Engine state, viewport and pointer control
//   - The rendered frame as PNG
//   - Retrying failed items and requesting full-resolution promotion
//   - Serving item sources and a thumbnail store that the remote tier can target
//   - Health checks, version and Prometheus metrics
//
// Every handler that touches engine state goes through [Controller.Do] so
// the engine is only ever driven from its own goroutine.
package handlers
