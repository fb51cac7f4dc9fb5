// Package engine is the streaming core of the gallery.
//
// Each frame the engine asks the renderer for the current transform,
// queries the spatial index for the buffered view, feeds placeholders to the
// load scheduler, applies the high-res promotion policy to the dominant item
// and issues draw calls for the visible set.
//
// All item state is mutated on one goroutine. Fetching, decoding and
// generation run on background goroutines that post closures back to a
// completion channel; those closures run at the start of the next frame and
// re-validate the item before touching it. A Driver owns that goroutine and
// lets other goroutines run commands on it with Do.
//
// Plugins observe frames, pointer movement and loaded assets through the
// Plugin interface.
package engine
