package domain

import (
	"sort"
	"strings"
)

type AdjacencyStatus string

const (
	AdjacencySingle       AdjacencyStatus = "single"
	AdjacencyConnected    AdjacencyStatus = "connected"
	AdjacencyDisconnected AdjacencyStatus = "disconnected"
)

// PenaltyKind identifies one term of a candidate's score.
type PenaltyKind string

const (
	PenaltySlack          PenaltyKind = "slack"
	PenaltyScarcity       PenaltyKind = "scarcity"
	PenaltyFutureConflict PenaltyKind = "future_conflict"
	PenaltyStructural     PenaltyKind = "structural"
	PenaltyUnknown        PenaltyKind = "unknown"
)

// ScoreBreakdown holds the independently computed penalty terms.
type ScoreBreakdown struct {
	Slack          float64
	Scarcity       float64
	FutureConflict float64
	Structural     float64
}

func (b ScoreBreakdown) Total() float64 {
	return b.Slack + b.Scarcity + b.FutureConflict + b.Structural
}

// Dominant returns the penalty term contributing the largest share of the
// total. All-zero breakdowns report PenaltyUnknown.
func (b ScoreBreakdown) Dominant() PenaltyKind {
	kind := PenaltyUnknown
	best := 0.0
	for _, term := range []struct {
		kind  PenaltyKind
		value float64
	}{
		{PenaltySlack, b.Slack},
		{PenaltyScarcity, b.Scarcity},
		{PenaltyFutureConflict, b.FutureConflict},
		{PenaltyStructural, b.Structural},
	} {
		if term.value > best {
			best = term.value
			kind = term.kind
		}
	}
	return kind
}

// Candidate is an ephemeral proposed table combination. It is produced fresh
// per allocation attempt and never persisted.
type Candidate struct {
	Tables          []Table
	TotalCapacity   int
	Slack           int
	Score           float64
	Breakdown       ScoreBreakdown
	AdjacencyStatus AdjacencyStatus
}

func NewCandidate(tables []Table, partySize int, status AdjacencyStatus) Candidate {
	sorted := append([]Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	total := 0
	for _, t := range sorted {
		total += t.Capacity
	}
	return Candidate{
		Tables:          sorted,
		TotalCapacity:   total,
		Slack:           total - partySize,
		AdjacencyStatus: status,
	}
}

func (c Candidate) TableIDs() []string {
	ids := make([]string, len(c.Tables))
	for i, t := range c.Tables {
		ids[i] = t.ID
	}
	return ids
}

// Key is a stable identity for the combination, used for de-duplication and
// deterministic tie-breaking (table ids are kept sorted).
func (c Candidate) Key() string {
	return strings.Join(c.TableIDs(), "+")
}

// Fragmentation is the capacity carried by tables other than the largest one;
// it penalizes splitting a party across many small tables.
func (c Candidate) Fragmentation() int {
	maxCap := 0
	for _, t := range c.Tables {
		if t.Capacity > maxCap {
			maxCap = t.Capacity
		}
	}
	return c.TotalCapacity - maxCap
}

// ZoneSpan counts zones beyond the first covered by the combination.
func (c Candidate) ZoneSpan() int {
	zones := make(map[string]bool)
	for _, t := range c.Tables {
		zones[t.ZoneID] = true
	}
	if len(zones) == 0 {
		return 0
	}
	return len(zones) - 1
}
