package compare

import (
	"fmt"
	"sort"
)

// Metric domain names, used in logs and errors.
const (
	DomainOverall      = "overall"
	DomainConfirmation = "confirmation"
	DomainOxidation    = "oxidation"
	DomainWaterDamage  = "water_damage"
)

// Range is a half-open index window [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of indices covered.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether i falls inside the window.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Windows are the instrument-specific sub-band index windows.
type Windows struct {
	Oxidation   Range `json:"oxidation"`
	WaterDamage Range `json:"water_damage"`
}

// DefaultWindows returns the windows for the lab's FTIR configuration.
func DefaultWindows() Windows {
	return Windows{
		Oxidation:   Range{Start: 3260, End: 3280},
		WaterDamage: Range{Start: 400, End: 800},
	}
}

// Validate checks that both windows are non-empty and non-negative.
func (w Windows) Validate() error {
	for name, r := range map[string]Range{DomainOxidation: w.Oxidation, DomainWaterDamage: w.WaterDamage} {
		if r.Start < 0 {
			return fmt.Errorf("%s window %s starts before 0", name, r)
		}
		if r.Len() == 0 {
			return fmt.Errorf("%s window %s is empty", name, r)
		}
	}
	return nil
}

// complement returns the sorted, disjoint ranges of [0, n) not covered by any
// of the excluded windows.
func complement(n int, excluded ...Range) []Range {
	ex := make([]Range, 0, len(excluded))
	for _, r := range excluded {
		if r.Len() > 0 {
			ex = append(ex, r)
		}
	}
	sort.Slice(ex, func(i, j int) bool { return ex[i].Start < ex[j].Start })

	var out []Range
	cursor := 0
	for _, r := range ex {
		if r.Start > cursor {
			end := r.Start
			if end > n {
				end = n
			}
			if end > cursor {
				out = append(out, Range{Start: cursor, End: end})
			}
		}
		if r.End > cursor {
			cursor = r.End
		}
		if cursor >= n {
			break
		}
	}
	if cursor < n {
		out = append(out, Range{Start: cursor, End: n})
	}
	return out
}
