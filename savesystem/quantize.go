package savesystem

import "math"

// quantizePrecision is the documented float precision persisted state is
// rounded to before serialization, so that deserialize(serialize(x)) is
// always byte-identical to serialize(x) (spec.md §6: "floats quantized to
// a documented precision").
const quantizePrecision = 1e6

// quantize rounds v to quantizePrecision so repeated round-trips are
// idempotent.
func quantize(v float64) float64 {
	return math.Round(v*quantizePrecision) / quantizePrecision
}
