// Package logging provides a simple leveled logging interface for the
// gallery streamer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (tier fallthrough, admissions)
//   - INFO: General operational messages
//   - WARN: Warning conditions (cache unavailable, upload failures)
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Components obtain a tagged Logger with
// For("name").
package logging
