// Package cache holds the recency-ordered caches of the streaming engine.
//
// HighRes bounds the number of full-resolution assets by entry count. When
// an insert would exceed the bound, the least recently used entry's release
// callback runs first (destroying its device resources and returning the
// item to HighResNone) and only then is the entry removed. Every draw of a
// high-resolution asset touches its entry.
//
// Retention is the optional bound on ready thumbnails. It tracks when each
// thumbnail was last visible and releases the stalest off-screen ones,
// returning their items to the placeholder state so they stream again when
// scrolled back into view.
package cache
