package engine

import (
	"sort"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// ScoreInput scores one generation pass's candidates against the weighted
// penalty model. The snapshot fields feed the future-conflict lookahead.
type ScoreInput struct {
	Candidates []domain.Candidate
	Weights    domain.StrategicWeights
	// Demand resolves the time-of-day multiplier; nil uses the default
	// profile. A DemandMultiplierOverride in Weights wins over both.
	Demand       *DemandProfile
	BookingStart time.Time
	// CandidateWindow is the window the booking under placement would occupy.
	CandidateWindow domain.Window

	// Later-same-day bookings still awaiting tables, and the snapshot they
	// would have to be seated against.
	FutureBookings []domain.Booking
	Tables         []domain.Table
	Allocations    []domain.Allocation
	Holds          []domain.Hold
	Now            time.Time
	MaxTables      int
}

// ScoreCandidates annotates every candidate with its score and breakdown and
// returns them sorted ascending (lowest score wins). Identical inputs always
// produce identical ordering; ties break on the lexicographically smallest
// table-id set.
func ScoreCandidates(in ScoreInput) []domain.Candidate {
	weights := in.Weights.Normalized()
	multiplier := resolveDemandMultiplier(weights, in.Demand, in.BookingStart)
	scarcityByTable := scarcityScores(in.Tables, weights.TableScarcity)

	scored := make([]domain.Candidate, len(in.Candidates))
	for i, candidate := range in.Candidates {
		breakdown := domain.ScoreBreakdown{
			Slack:      float64(candidate.Slack) * weights.SlackWeight,
			Structural: structuralPenalty(candidate, weights),
		}

		scarcity := 0.0
		for _, t := range candidate.Tables {
			scarcity += scarcityByTable[t.ID]
		}
		breakdown.Scarcity = scarcity * weights.Scarcity * multiplier

		if blocked := blockedFutureBookings(candidate, in); blocked > 0 {
			breakdown.FutureConflict = float64(blocked) * weights.FutureConflictCost()
		}

		candidate.Breakdown = breakdown
		candidate.Score = breakdown.Total()
		scored[i] = candidate
	}

	sort.Slice(scored, func(i, j int) bool {
		return lessCandidate(scored[i], scored[j])
	})
	return scored
}

func lessCandidate(a, b domain.Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Slack != b.Slack {
		return a.Slack < b.Slack
	}
	if len(a.Tables) != len(b.Tables) {
		return len(a.Tables) < len(b.Tables)
	}
	if a.TotalCapacity != b.TotalCapacity {
		return a.TotalCapacity < b.TotalCapacity
	}
	if a.Fragmentation() != b.Fragmentation() {
		return a.Fragmentation() < b.Fragmentation()
	}
	if adjacencyDepth(a) != adjacencyDepth(b) {
		return adjacencyDepth(a) < adjacencyDepth(b)
	}
	return a.Key() < b.Key()
}

func structuralPenalty(c domain.Candidate, w domain.StrategicWeights) float64 {
	depth := adjacencyDepth(c)
	return float64(len(c.Tables)-1)*w.TableCountWeight +
		float64(c.Fragmentation())*w.FragmentationWeight +
		float64(c.ZoneSpan())*w.ZoneBalanceWeight +
		float64(depth)*w.AdjacencyDepthWeight
}

// adjacencyDepth approximates how stretched a combination is: singles cost
// nothing, connected chains cost their length beyond the first table, and a
// disconnected plan pays for every table.
func adjacencyDepth(c domain.Candidate) int {
	switch c.AdjacencyStatus {
	case domain.AdjacencySingle:
		return 0
	case domain.AdjacencyConnected:
		return len(c.Tables) - 1
	default:
		return len(c.Tables)
	}
}

func resolveDemandMultiplier(w domain.StrategicWeights, profile *DemandProfile, at time.Time) float64 {
	if w.DemandMultiplierOverride != nil && *w.DemandMultiplierOverride > 0 {
		return *w.DemandMultiplierOverride
	}
	if profile == nil {
		profile = DefaultDemandProfile()
	}
	return profile.MultiplierFor(at)
}

// scarcityScores returns a per-table scarcity score: provided metrics win,
// otherwise the heuristic demandWeight(capacity)/seatSupply(capacity) over the
// snapshot. Rare table sizes under high demand score high, so breaking them up
// costs more.
func scarcityScores(tables []domain.Table, metrics map[string]float64) map[string]float64 {
	supplyByCapacity := make(map[int]int)
	for _, t := range tables {
		if t.Capacity > 0 {
			supplyByCapacity[t.Capacity] += t.Capacity
		}
	}

	scores := make(map[string]float64, len(tables))
	for _, t := range tables {
		if metric, ok := metrics[t.ID]; ok && metric > 0 {
			scores[t.ID] = metric
			continue
		}
		supply := supplyByCapacity[t.Capacity]
		if supply < 1 {
			supply = 1
		}
		scores[t.ID] = capacityDemandWeight(t.Capacity) / float64(supply)
	}
	return scores
}

// Two-tops are chronically scarce relative to demand; larger sizes less so.
func capacityDemandWeight(capacity int) float64 {
	switch {
	case capacity <= 0:
		return 0.1
	case capacity <= 2:
		return 1.6
	case capacity <= 4:
		return 0.18
	case capacity <= 6:
		return 0.12
	default:
		return 0.08
	}
}

// blockedFutureBookings counts later-same-day bookings that would have no
// feasible seating left if the candidate's tables were taken for its window.
func blockedFutureBookings(c domain.Candidate, in ScoreInput) int {
	if len(in.FutureBookings) == 0 {
		return 0
	}
	taken := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		taken[t.ID] = true
	}
	maxTables := in.MaxTables
	if maxTables <= 0 {
		maxTables = domain.DefaultMaxTables
	}

	candidateWindow := in.CandidateWindow
	blocked := 0
	for _, future := range in.FutureBookings {
		if !future.Window().Valid() || !candidateWindow.Overlaps(future.Window()) {
			continue
		}
		if !futureFeasible(future, taken, maxTables, in) {
			blocked++
		}
	}
	return blocked
}

// futureFeasible is a quick upper-bound check, not a full planning pass: the
// future party fits if the top maxTables remaining free capacities can cover
// it.
func futureFeasible(future domain.Booking, taken map[string]bool, maxTables int, in ScoreInput) bool {
	capacities := make([]int, 0, len(in.Tables))
	for _, t := range in.Tables {
		if !t.Active || taken[t.ID] || !t.MatchesPreference(future.SeatingPreference) {
			continue
		}
		conflicts := FindConflicts([]string{t.ID}, future.Window(), in.Allocations, in.Holds, in.Now, "")
		if conflicts.Any() {
			continue
		}
		capacities = append(capacities, t.Capacity)
	}
	if len(capacities) == 0 {
		return false
	}
	sort.Sort(sort.Reverse(sort.IntSlice(capacities)))
	sum := 0
	for i, capacity := range capacities {
		if i >= maxTables {
			break
		}
		sum += capacity
		if sum >= future.PartySize {
			return true
		}
	}
	return sum >= future.PartySize
}
