package engine

import (
	"sort"
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// SkippedCandidate pairs a considered-but-rejected combination with the
// reason it was dropped, for telemetry and sweep diagnostics.
type SkippedCandidate struct {
	TableIDs  []string
	Rejection domain.Rejection
}

// GenerateInput is one candidate-generation pass over a consistent snapshot.
type GenerateInput struct {
	Tables      []domain.Table
	Adjacency   domain.Adjacency
	PartySize   int
	Preference  domain.SeatingType
	Window      domain.Window
	Strategy    domain.Strategy
	Config      domain.StrategyConfig
	Avoid       map[string]bool
	Allocations []domain.Allocation
	Holds       []domain.Hold
	Now         time.Time
}

type GenerateResult struct {
	Candidates []domain.Candidate
	Skipped    []SkippedCandidate
	// Reason is set when the candidate list is empty.
	Reason string
}

const reasonNoCapacity = "no active table combination meets the capacity requirements"

// GenerateCandidates enumerates non-conflicting table combinations of size
// 1..Strategy.MaxTables that satisfy capacity and seating preference, plus
// mutual adjacency when the strategy demands it. Multi-table combinations
// never cross zones. Ordering among the returned candidates is left to the
// scorer.
func GenerateCandidates(in GenerateInput) GenerateResult {
	if in.PartySize <= 0 {
		// Caller validation error; generation is never reached with this in
		// the orchestrator.
		return GenerateResult{Reason: reasonNoCapacity}
	}
	cfg := in.Config
	if cfg.MaxPlansPerSlack <= 0 {
		cfg.MaxPlansPerSlack = domain.DefaultMaxPlansPerSlack
	}
	if cfg.MaxCombinationEvaluations <= 0 {
		cfg.MaxCombinationEvaluations = domain.DefaultMaxCombinationEvaluations
	}
	maxTables := in.Strategy.MaxTables
	if maxTables <= 0 {
		maxTables = 1
	}
	maxCapacity := 0
	if cfg.MaxSlack > 0 {
		maxCapacity = in.PartySize + cfg.MaxSlack
	}

	result := GenerateResult{}

	// Hard filters first: inactive and avoided tables drop silently, seating
	// mismatches and busy tables become skipped entries. A table with any
	// overlapping committed allocation or active hold cannot join any
	// combination, so conflicts are resolved per table before enumeration.
	usable := make([]domain.Table, 0, len(in.Tables))
	for _, t := range in.Tables {
		if !t.Active || t.Capacity <= 0 || in.Avoid[t.ID] {
			continue
		}
		if !t.MatchesPreference(in.Preference) {
			result.Skipped = append(result.Skipped, SkippedCandidate{
				TableIDs:  []string{t.ID},
				Rejection: domain.SeatingMismatchRejection(t.ID, in.Preference),
			})
			continue
		}
		if maxCapacity > 0 && t.Capacity > maxCapacity {
			result.Skipped = append(result.Skipped, SkippedCandidate{
				TableIDs:  []string{t.ID},
				Rejection: domain.NoCapacityRejection(in.PartySize, t.Capacity),
			})
			continue
		}
		conflicts := FindConflicts([]string{t.ID}, in.Window, in.Allocations, in.Holds, in.Now, "")
		if conflicts.Any() {
			result.Skipped = append(result.Skipped, SkippedCandidate{
				TableIDs:  []string{t.ID},
				Rejection: domain.TimeConflictRejection([]string{t.ID}, conflicts.AllocationIDs, conflicts.HoldIDs),
			})
			continue
		}
		usable = append(usable, t)
	}

	// Capacity ascending with id tie-break keeps enumeration deterministic
	// and lets the overage prune break early.
	sort.Slice(usable, func(i, j int) bool {
		if usable[i].Capacity != usable[j].Capacity {
			return usable[i].Capacity < usable[j].Capacity
		}
		return usable[i].ID < usable[j].ID
	})

	for _, t := range usable {
		if t.Capacity >= in.PartySize {
			result.Candidates = append(result.Candidates, domain.NewCandidate([]domain.Table{t}, in.PartySize, domain.AdjacencySingle))
		}
	}

	if maxTables > 1 && len(usable) > 1 {
		combos := enumerateCombinations(combinationArgs{
			tables:      usable,
			partySize:   in.PartySize,
			adjacency:   in.Adjacency,
			maxTables:   maxTables,
			maxCapacity: maxCapacity,
			bucketCap:   cfg.MaxPlansPerSlack,
			evalCap:     cfg.MaxCombinationEvaluations,
			requireAdj:  in.Strategy.RequireAdjacency,
		})
		result.Candidates = append(result.Candidates, combos.accepted...)
		result.Skipped = append(result.Skipped, combos.skipped...)
	}

	if len(result.Candidates) == 0 {
		result.Reason = reasonNoCapacity
	}
	return result
}

type combinationArgs struct {
	tables      []domain.Table
	partySize   int
	adjacency   domain.Adjacency
	maxTables   int
	maxCapacity int
	bucketCap   int
	evalCap     int
	requireAdj  bool
}

type combinationResult struct {
	accepted []domain.Candidate
	skipped  []SkippedCandidate
}

// enumerateCombinations walks multi-table subsets depth-first. Combinations
// are zone-locked to the first table's zone, de-duplicated by sorted key, and
// bounded by per-slack bucket caps plus a total evaluation cap.
func enumerateCombinations(args combinationArgs) combinationResult {
	var out combinationResult
	seen := make(map[string]bool)
	buckets := make(map[int][]domain.Candidate)
	evaluations := 0
	stop := false

	register := func(c domain.Candidate) {
		bucket := append(buckets[c.Slack], c)
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Key() < bucket[j].Key() })
		if len(bucket) > args.bucketCap {
			bucket = bucket[:args.bucketCap]
		}
		buckets[c.Slack] = bucket
	}

	var dfs func(start int, selection []domain.Table, capacity int, zoneID string)
	dfs = func(start int, selection []domain.Table, capacity int, zoneID string) {
		if stop {
			return
		}

		if len(selection) >= 2 && capacity >= args.partySize {
			candidate := domain.NewCandidate(selection, args.partySize, domain.AdjacencyDisconnected)
			if !seen[candidate.Key()] {
				seen[candidate.Key()] = true
				connected, _ := args.adjacency.Connected(candidate.TableIDs())
				switch {
				case connected:
					candidate.AdjacencyStatus = domain.AdjacencyConnected
					register(candidate)
				case args.requireAdj:
					out.skipped = append(out.skipped, SkippedCandidate{
						TableIDs:  candidate.TableIDs(),
						Rejection: domain.AdjacencyRejection(candidate.TableIDs()),
					})
				default:
					register(candidate)
				}
			}
			evaluations++
			if evaluations >= args.evalCap {
				stop = true
				return
			}
		}

		if len(selection) >= args.maxTables {
			return
		}

		for i := start; i < len(args.tables) && !stop; i++ {
			next := args.tables[i]
			if len(selection) > 0 && zoneID != "" && next.ZoneID != "" && next.ZoneID != zoneID {
				continue
			}
			nextCapacity := capacity + next.Capacity
			if args.maxCapacity > 0 && nextCapacity > args.maxCapacity {
				// Capacities ascend, so every later table overflows too.
				break
			}
			nextZone := zoneID
			if nextZone == "" {
				nextZone = next.ZoneID
			}
			dfs(i+1, append(selection, next), nextCapacity, nextZone)
		}
	}

	for i := 0; i < len(args.tables) && !stop; i++ {
		base := args.tables[i]
		dfs(i+1, []domain.Table{base}, base.Capacity, base.ZoneID)
	}

	slacks := make([]int, 0, len(buckets))
	for slack := range buckets {
		slacks = append(slacks, slack)
	}
	sort.Ints(slacks)
	for _, slack := range slacks {
		out.accepted = append(out.accepted, buckets[slack]...)
	}
	return out
}
