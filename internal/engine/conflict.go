package engine

import (
	"time"

	"github.com/amanshresthaa/SajiloReserveX-sub003/internal/domain"
)

// Conflicts lists the committed allocations and active holds that collide
// with a proposed table set and window.
type Conflicts struct {
	AllocationIDs []string
	HoldIDs       []string
}

func (c Conflicts) Any() bool {
	return len(c.AllocationIDs) > 0 || len(c.HoldIDs) > 0
}

// FindConflicts is the pure conflict detector. Two windows conflict iff they
// share a table and their half-open [start, end) intervals overlap; a booking
// ending exactly when another starts never conflicts. Shadow allocations are
// non-blocking. Holds block while unexpired, even though no allocation row
// exists yet; excludeHoldID lets a caller re-validate its own hold.
func FindConflicts(
	tableIDs []string,
	window domain.Window,
	allocations []domain.Allocation,
	holds []domain.Hold,
	now time.Time,
	excludeHoldID string,
) Conflicts {
	wanted := make(map[string]bool, len(tableIDs))
	for _, id := range tableIDs {
		wanted[id] = true
	}

	var out Conflicts
	for _, alloc := range allocations {
		if !alloc.Blocking() || !wanted[alloc.TableID] {
			continue
		}
		if window.Overlaps(alloc.Window()) {
			out.AllocationIDs = append(out.AllocationIDs, alloc.ID)
		}
	}

	for _, hold := range holds {
		if hold.ID == excludeHoldID || !hold.Active(now) {
			continue
		}
		if !window.Overlaps(hold.Window()) {
			continue
		}
		for _, id := range hold.TableIDs {
			if wanted[id] {
				out.HoldIDs = append(out.HoldIDs, hold.ID)
				break
			}
		}
	}
	return out
}
