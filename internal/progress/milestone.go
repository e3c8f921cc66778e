// ABOUTME: Milestone enum for the fixed 25/50/75/100 percent progress thresholds.
// ABOUTME: Provides ordered detection and stateless diffing between two percentages.
package progress

import "fmt"

// Milestone is a fixed progress threshold, valued by its percentage.
type Milestone int

const (
	Quarter       Milestone = 25
	Half          Milestone = 50
	ThreeQuarters Milestone = 75
	Complete      Milestone = 100
)

// AllMilestones lists every milestone in ascending threshold order.
var AllMilestones = []Milestone{Quarter, Half, ThreeQuarters, Complete}

// Threshold returns the percentage at which the milestone is reached.
func (m Milestone) Threshold() float64 {
	return float64(m)
}

func (m Milestone) String() string {
	switch m {
	case Quarter:
		return "quarter"
	case Half:
		return "half"
	case ThreeQuarters:
		return "three_quarters"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("milestone(%d)", int(m))
}

// MarshalText encodes the milestone by name.
func (m Milestone) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a milestone name.
func (m *Milestone) UnmarshalText(b []byte) error {
	for _, ms := range AllMilestones {
		if ms.String() == string(b) {
			*m = ms
			return nil
		}
	}
	return fmt.Errorf("unknown milestone: %q", string(b))
}

// DetectMilestones returns, in ascending order, every milestone whose
// threshold is at or below percentage. The comparison is exact; the
// calculator snaps float noise before percentages get here.
func DetectMilestones(percentage float64) []Milestone {
	out := make([]Milestone, 0, len(AllMilestones))
	for _, m := range AllMilestones {
		if m.Threshold() <= percentage {
			out = append(out, m)
		}
	}
	return out
}

// DetectNewMilestones returns the milestones crossed when moving from
// previous to current, i.e. thresholds in (previous, current]. Regression or
// no movement yields none; milestones are never un-achieved.
func DetectNewMilestones(current, previous float64) []Milestone {
	out := make([]Milestone, 0, len(AllMilestones))
	if current <= previous {
		return out
	}

	reached := make(map[Milestone]bool)
	for _, m := range DetectMilestones(previous) {
		reached[m] = true
	}
	for _, m := range DetectMilestones(current) {
		if !reached[m] {
			out = append(out, m)
		}
	}
	return out
}
