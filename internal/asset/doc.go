// Package asset models a gallery item and its two state machines.
//
// The thumbnail tier moves Placeholder → Loading → Ready or Error. The
// full-resolution tier moves None → Loading → Ready or Error, and eviction
// returns Ready to None. Loading is exclusive in both, so at most one load
// per item per tier is ever in flight.
//
// The package also defines the error taxonomy shared by the fetch, storage
// and pipeline packages.
package asset
