// Package middleware provides HTTP middleware for the gallery control server.
//
// It includes:
//   - Request logging in W3C Extended Log Format through the component logger
//   - Prometheus request metrics labelled by mux route template
//   - gzip compression for JSON responses
package middleware
