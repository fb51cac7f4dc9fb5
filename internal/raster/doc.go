// Package raster is a headless software renderer. It keeps textures in a
// handle table, composites them onto an RGBA canvas with x/image/draw and
// can encode the result as PNG, which lets the gallery run without a GPU.
package raster
