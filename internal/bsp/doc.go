// Package bsp runs a fixed set of workers in bulk-synchronous lockstep.
//
// A World spawns p workers that execute the same function. Workers share
// nothing except through Coarrays (one slot slice per worker, written
// remotely by puts and read locally) and Vars (single values the owner
// broadcasts). Remote writes become visible to their targets only after the
// next Sync: every worker must call Sync the same number of times, and no
// worker passes a Sync until all have arrived.
//
// If any worker returns an error, the world's context is canceled and every
// worker blocked in Sync returns that cancellation instead of waiting for
// peers that will never arrive.
package bsp
