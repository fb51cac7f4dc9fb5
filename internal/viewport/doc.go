// Package viewport computes, once per frame, what the viewport shows.
//
// From the current transform and canvas size the Analyzer derives the
// visible world rectangle, a buffered query region used for prefetching,
// the candidate items returned by the spatial index for that region, the
// subset that truly intersects the unbuffered view, the dominant item (the
// largest on-screen intersection, first seen wins a tie) and the item under
// the pointer. The results feed the scheduler and the high-resolution
// promotion policy and are never reused across frames.
package viewport
