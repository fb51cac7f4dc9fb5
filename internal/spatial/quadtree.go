package spatial

import (
	"gallery-streamer/internal/geom"
)

const (
	// DefaultCapacity is the number of items a leaf holds before it splits.
	DefaultCapacity = 8

	// DefaultMaxLevel bounds recursion depth. Nodes at this level never split.
	DefaultMaxLevel = 8

	// LODThreshold is the minimum projected node width, in screen units, that
	// a query still descends into.
	LODThreshold = 1.0
)

// Bounded is anything with a world-space rectangle that can be stored in the
// index. Implementations are usually pointers so that identity is stable.
type Bounded interface {
	comparable
	Bounds() geom.Rect
}

// Tree is a region quadtree. Items that straddle a split line are kept by
// the smallest node that fully contains them, so every item is stored
// exactly once.
//
// A Tree is not safe for concurrent use. It is rebuilt, not updated, when
// the layout changes.
type Tree[T Bounded] struct {
	root     *node[T]
	capacity int
	maxLevel int
	count    int
}

type node[T Bounded] struct {
	boundary geom.Rect
	level    int
	items    []T
	children [4]*node[T] // NE, NW, SW, SE
	divided  bool
}

// New creates an empty tree covering boundary. Non-positive capacity or
// maxLevel fall back to the defaults.
func New[T Bounded](boundary geom.Rect, capacity, maxLevel int) *Tree[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxLevel <= 0 {
		maxLevel = DefaultMaxLevel
	}
	return &Tree[T]{
		root:     &node[T]{boundary: boundary},
		capacity: capacity,
		maxLevel: maxLevel,
	}
}

// Build creates a tree whose boundary covers every item and inserts them
// all. An empty slice yields an empty tree with a zero boundary.
func Build[T Bounded](items []T, capacity, maxLevel int) *Tree[T] {
	var boundary geom.Rect
	for i, it := range items {
		if i == 0 {
			boundary = it.Bounds()
			continue
		}
		boundary = boundary.Union(it.Bounds())
	}
	// Pad by one unit so items on the outer edge still intersect the root.
	if len(items) > 0 {
		boundary = boundary.Pad(1)
	}

	t := New[T](boundary, capacity, maxLevel)
	for _, it := range items {
		t.Insert(it)
	}
	return t
}

// Boundary returns the region covered by the root node.
func (t *Tree[T]) Boundary() geom.Rect {
	return t.root.boundary
}

// Len returns the number of stored items.
func (t *Tree[T]) Len() int {
	return t.count
}

// Insert stores item and reports whether it was accepted. Items whose
// rectangle lies outside the root boundary are rejected.
func (t *Tree[T]) Insert(item T) bool {
	if !t.insert(t.root, item) {
		return false
	}
	t.count++
	return true
}

func (t *Tree[T]) insert(n *node[T], item T) bool {
	r := item.Bounds()
	if !n.boundary.Overlaps(r) {
		return false
	}

	if n.divided {
		if child := n.fittingChild(r); child != nil {
			return t.insert(child, item)
		}
		n.items = append(n.items, item)
		return true
	}

	n.items = append(n.items, item)
	if len(n.items) > t.capacity && n.level < t.maxLevel {
		t.subdivide(n)
	}
	return true
}

// fittingChild returns the single child that fully contains r, or nil when
// r straddles a midline or none contains it.
func (n *node[T]) fittingChild(r geom.Rect) *node[T] {
	var found *node[T]
	for _, c := range n.children {
		if c.boundary.Contains(r) {
			if found != nil {
				return nil
			}
			found = c
		}
	}
	return found
}

func (t *Tree[T]) subdivide(n *node[T]) {
	for i, q := range n.boundary.Quadrants() {
		n.children[i] = &node[T]{boundary: q, level: n.level + 1}
	}
	n.divided = true

	held := n.items
	n.items = nil
	for _, it := range held {
		t.insert(n, it)
	}
}

// Query returns every stored item overlapping rng. Nodes whose projected
// width (boundary width times scale) falls below LODThreshold are skipped.
// Results contain no duplicates; their order is unspecified.
func (t *Tree[T]) Query(rng geom.Rect, scale float64) []T {
	var out []T
	seen := make(map[T]struct{})
	t.query(t.root, rng, scale, seen, &out)
	return out
}

func (t *Tree[T]) query(n *node[T], rng geom.Rect, scale float64, seen map[T]struct{}, out *[]T) {
	if !n.boundary.Intersects(rng) {
		return
	}
	if n.boundary.W*scale < LODThreshold {
		return
	}

	for _, it := range n.items {
		if !rng.Overlaps(it.Bounds()) {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		*out = append(*out, it)
	}

	if !n.divided {
		return
	}
	for _, c := range n.children {
		t.query(c, rng, scale, seen, out)
	}
}

// Depth returns the deepest level reached by any node.
func (t *Tree[T]) Depth() int {
	return depth(t.root)
}

func depth[T Bounded](n *node[T]) int {
	if !n.divided {
		return n.level
	}
	d := n.level
	for _, c := range n.children {
		if cd := depth(c); cd > d {
			d = cd
		}
	}
	return d
}
