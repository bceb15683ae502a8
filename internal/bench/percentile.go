// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bench

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile of values by linear
// interpolation: index = (p/100)*(n-1); fractional indexes interpolate
// between the surrounding elements. Empty input returns 0 by
// convention, since an all-failing run legitimately has no latency
// samples. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) == 1 {
		return values[0]
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	index := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	frac := index - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
