package sampler

import (
	"github.com/phil-mansfield/table"
	"github.com/pkg/errors"
)

// RateTable maps frames to animation-rate overrides. It is read from a
// two column whitespace table (frame, rate) and lets individual frames
// run faster or slower than the domain's constant rate.
type RateTable struct {
	rates map[int]float32
}

// ReadRateTable parses the table at path. Negative rates clamp to zero,
// matching the domain-level rate.
func ReadRateTable(path string) (*RateTable, error) {
	cols, err := table.ReadTable(path, []int{0, 1}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "rate table %s", path)
	}

	t := &RateTable{rates: make(map[int]float32)}
	for i := range cols[0] {
		rate := float32(cols[1][i])
		if rate < 0 {
			rate = 0
		}
		t.rates[int(cols[0][i])] = rate
	}
	return t, nil
}

// Rate returns the override for frame, or def if the frame has none.
// Lookups are total: a nil table always returns def.
func (t *RateTable) Rate(frame int, def float32) float32 {
	if t == nil {
		return def
	}
	if r, ok := t.rates[frame]; ok {
		return r
	}
	return def
}
