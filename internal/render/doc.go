// Package render defines the contract between the streaming engine and the
// rendering collaborator: opaque resource handles, the world-to-screen
// transform and a closed set of primitive drawing operations.
//
// Shader pipelines and device management live behind the Renderer
// interface. The raster package provides a software implementation.
package render
