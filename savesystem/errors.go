package savesystem

import "errors"

// ErrStateCorruption is returned when deserialization produces a value out
// of its valid range (e.g. an awareness score above 1) or an unresolvable
// cross-reference. Fatal: the core refuses to start rather than silently
// clamp (spec.md §7).
var ErrStateCorruption = errors.New("state corruption")
