// Package overlay holds engine plugins. DetailsLoader fetches metadata for
// the hovered item in the background; FrameStats logs periodic frame
// summaries.
package overlay
