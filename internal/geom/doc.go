// Package geom provides the axis-aligned rectangle used for world-space item
// boxes, viewport regions and spatial index boundaries.
package geom
