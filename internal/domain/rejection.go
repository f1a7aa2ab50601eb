package domain

// RejectionKind is the tagged-variant discriminator for why a candidate (or a
// whole attempt) was rejected. Hard kinds are constraint violations; the
// strategic kind covers candidates that lost on score.
type RejectionKind string

const (
	RejectionNoCapacity         RejectionKind = "no_capacity"
	RejectionSeatingMismatch    RejectionKind = "seating_mismatch"
	RejectionAdjacencyViolation RejectionKind = "adjacency_violation"
	RejectionTimeConflict       RejectionKind = "time_conflict"
	RejectionStrategic          RejectionKind = "strategic"
)

func (k RejectionKind) Hard() bool {
	return k != RejectionStrategic
}

// Rejection carries only the fields relevant to its kind.
type Rejection struct {
	Kind RejectionKind

	// no_capacity / seating_mismatch
	PartySize     int
	TotalCapacity int
	Preference    SeatingType

	// adjacency_violation / time_conflict / strategic
	TableIDs []string

	// time_conflict
	ConflictingAllocationIDs []string
	ConflictingHoldIDs       []string

	// strategic
	DominantPenalty PenaltyKind
	Breakdown       ScoreBreakdown
}

func NoCapacityRejection(partySize, totalCapacity int) Rejection {
	return Rejection{Kind: RejectionNoCapacity, PartySize: partySize, TotalCapacity: totalCapacity}
}

func SeatingMismatchRejection(tableID string, pref SeatingType) Rejection {
	return Rejection{Kind: RejectionSeatingMismatch, TableIDs: []string{tableID}, Preference: pref}
}

func AdjacencyRejection(tableIDs []string) Rejection {
	return Rejection{Kind: RejectionAdjacencyViolation, TableIDs: tableIDs}
}

func TimeConflictRejection(tableIDs, allocationIDs, holdIDs []string) Rejection {
	return Rejection{
		Kind:                     RejectionTimeConflict,
		TableIDs:                 tableIDs,
		ConflictingAllocationIDs: allocationIDs,
		ConflictingHoldIDs:       holdIDs,
	}
}

func StrategicRejection(tableIDs []string, breakdown ScoreBreakdown) Rejection {
	return Rejection{
		Kind:            RejectionStrategic,
		TableIDs:        tableIDs,
		DominantPenalty: breakdown.Dominant(),
		Breakdown:       breakdown,
	}
}
