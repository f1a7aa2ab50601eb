package engine

import "time"

// DemandRule maps a weekday/time-of-day window to a demand multiplier.
// Windows are [start, end) in minutes of day; cross-midnight windows are not
// supported, define two rules instead. Higher priority wins; among equal
// priorities the narrower window wins.
type DemandRule struct {
	Days       []time.Weekday // empty means every day
	StartHour  int
	StartMin   int
	EndHour    int
	EndMin     int
	Multiplier float64
	Priority   int
}

func (r DemandRule) startMinute() int { return r.StartHour*60 + r.StartMin }

func (r DemandRule) endMinute() int {
	m := r.EndHour*60 + r.EndMin
	if m <= r.startMinute() {
		// Inverted or empty windows degrade to remainder-of-day.
		return 24 * 60
	}
	return m
}

func (r DemandRule) matches(t time.Time) bool {
	if len(r.Days) > 0 {
		found := false
		for _, d := range r.Days {
			if t.Weekday() == d {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= r.startMinute() && minute < r.endMinute()
}

// DemandProfile is the fallback time-of-day demand model used when a
// restaurant has no demand multiplier override.
type DemandProfile struct {
	Rules []DemandRule
	// Base applies when no rule matches; zero means 1.0.
	Base float64
}

// MultiplierFor resolves the demand multiplier for an instant. Deterministic:
// rule order only matters between rules of equal priority and width.
func (p *DemandProfile) MultiplierFor(t time.Time) float64 {
	best := (*DemandRule)(nil)
	for i := range p.Rules {
		rule := &p.Rules[i]
		if rule.Multiplier <= 0 || !rule.matches(t) {
			continue
		}
		if best == nil || betterRule(rule, best) {
			best = rule
		}
	}
	if best != nil {
		return best.Multiplier
	}
	if p.Base > 0 {
		return p.Base
	}
	return 1.0
}

func betterRule(a, b *DemandRule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	widthA := a.endMinute() - a.startMinute()
	widthB := b.endMinute() - b.startMinute()
	if widthA != widthB {
		return widthA < widthB
	}
	return a.startMinute() < b.startMinute()
}

var weekend = []time.Weekday{time.Friday, time.Saturday}

// DefaultDemandProfile models a typical service curve: quiet afternoons,
// busy dinner peak, busier weekend dinners.
func DefaultDemandProfile() *DemandProfile {
	return &DemandProfile{
		Base: 1.0,
		Rules: []DemandRule{
			{StartHour: 12, EndHour: 14, Multiplier: 1.2, Priority: 1},
			{StartHour: 14, EndHour: 17, Multiplier: 0.8, Priority: 1},
			{StartHour: 18, EndHour: 21, Multiplier: 1.5, Priority: 1},
			{Days: weekend, StartHour: 18, EndHour: 21, Multiplier: 1.8, Priority: 2},
		},
	}
}
