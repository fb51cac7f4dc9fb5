// Package layout assigns world rectangles to gallery entries. Grid uses
// square cells; Justified packs rows of varying aspect ratios edge to edge.
package layout
