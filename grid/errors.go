package grid

import "errors"

// ErrBlockedMutation is returned when a queued mutation cannot be applied —
// e.g. the target (tile, layer) cell is already at its entity capacity, or
// the destination tile is impassable (spec.md §7, §4.1). The mutation is
// dropped with no further effect; the caller receives this as a receipt,
// never as a panic.
var ErrBlockedMutation = errors.New("blocked mutation")

// ErrInvalidMutation is returned when a mutation is malformed (references
// an entity or tile that cannot exist) rather than merely contested.
var ErrInvalidMutation = errors.New("invalid mutation")
