package domain

// StrategicWeights are the per-restaurant knobs of the penalty model. Zero
// values fall back to the defaults; nil pointer overrides defer to the
// default demand profile / default penalty.
type StrategicWeights struct {
	// Scarcity scales the per-table scarcity score.
	Scarcity float64
	// DemandMultiplierOverride, when set, replaces the time-of-day demand
	// profile lookup with a fixed multiplier.
	DemandMultiplierOverride *float64
	// FutureConflictPenalty is the cost per later-same-day booking a
	// candidate would leave unseatable. Nil uses the default.
	FutureConflictPenalty *float64

	// Structural term weights.
	SlackWeight          float64
	TableCountWeight     float64
	FragmentationWeight  float64
	ZoneBalanceWeight    float64
	AdjacencyDepthWeight float64

	// TableScarcity maps table id to a precomputed scarcity score. Missing
	// entries use the capacity heuristic.
	TableScarcity map[string]float64
}

const (
	DefaultScarcityWeight        = 22.0
	DefaultFutureConflictPenalty = 30.0
	DefaultSlackWeight           = 5.0
	DefaultTableCountWeight      = 3.0
	DefaultFragmentationWeight   = 2.0
	DefaultZoneBalanceWeight     = 4.0
	DefaultAdjacencyDepthWeight  = 1.0
)

func DefaultStrategicWeights() StrategicWeights {
	return StrategicWeights{
		Scarcity:             DefaultScarcityWeight,
		SlackWeight:          DefaultSlackWeight,
		TableCountWeight:     DefaultTableCountWeight,
		FragmentationWeight:  DefaultFragmentationWeight,
		ZoneBalanceWeight:    DefaultZoneBalanceWeight,
		AdjacencyDepthWeight: DefaultAdjacencyDepthWeight,
	}
}

// Normalized fills zero structural weights with defaults so partial overrides
// from the settings store stay usable.
func (w StrategicWeights) Normalized() StrategicWeights {
	d := DefaultStrategicWeights()
	if w.Scarcity == 0 {
		w.Scarcity = d.Scarcity
	}
	if w.SlackWeight == 0 {
		w.SlackWeight = d.SlackWeight
	}
	if w.TableCountWeight == 0 {
		w.TableCountWeight = d.TableCountWeight
	}
	if w.FragmentationWeight == 0 {
		w.FragmentationWeight = d.FragmentationWeight
	}
	if w.ZoneBalanceWeight == 0 {
		w.ZoneBalanceWeight = d.ZoneBalanceWeight
	}
	if w.AdjacencyDepthWeight == 0 {
		w.AdjacencyDepthWeight = d.AdjacencyDepthWeight
	}
	return w
}

func (w StrategicWeights) FutureConflictCost() float64 {
	if w.FutureConflictPenalty != nil {
		return *w.FutureConflictPenalty
	}
	return DefaultFutureConflictPenalty
}
