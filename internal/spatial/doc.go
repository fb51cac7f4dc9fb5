// Package spatial implements the region quadtree that indexes gallery items
// by their world-space rectangles.
//
// Items that fit entirely inside one quadrant move down the tree; items that
// straddle a split line stay at the node where they no longer fit a single
// child. This keeps every item stored exactly once, so queries never need to
// merge duplicates from sibling quadrants and an item on a midline can never
// be lost when its node splits.
//
// Queries prune nodes that miss the range and, for level-of-detail culling,
// nodes whose projected on-screen width drops below one unit. The second
// rule bounds work at extreme zoom-out independent of item count.
package spatial
