// Package activation drives the scroll-dependent visibility lifecycle of
// marginal annotations.
//
// Everything here assumes a single event-delivery goroutine: scroll ticks,
// intersection observations and scheduler callbacks are all dispatched from
// one loop, matching the cooperative model of the rendering host. There is no
// blocking work anywhere on these paths.
package activation

// Direction of reader scroll.
// ENUM(down, up)
type Direction int

// State of one annotation instance visibility lifecycle.
// Transitions are cyclic: inactive -> activating -> active -> deactivating ->
// inactive, with two cancellation shortcuts (activating -> inactive on scroll
// reversal, deactivating -> active on return to the reading zone).
// ENUM(inactive, activating, active, deactivating)
type State int
