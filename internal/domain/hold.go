package domain

import "time"

// Hold is a time-boxed exclusive claim on a set of tables for one booking
// candidate. While active and unexpired its tables are unavailable to other
// candidate generation, even though no allocation rows exist yet. A hold ends
// by being confirmed (converted into allocations), released, or expiring.
type Hold struct {
	ID           string
	BookingID    string
	RestaurantID string
	ZoneID       string
	TableIDs     []string
	StartAt      time.Time
	EndAt        time.Time
	ExpiresAt    time.Time
	CreatedBy    string
	CreatedAt    time.Time
}

// Active reports whether the hold still blocks its tables at the given
// instant. Expiry is lazy: nothing has to delete the row for it to stop
// blocking.
func (h Hold) Active(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}

func (h Hold) Window() Window {
	return Window{Start: h.StartAt, End: h.EndAt}
}

// Covers reports whether the hold claims the given table.
func (h Hold) Covers(tableID string) bool {
	for _, id := range h.TableIDs {
		if id == tableID {
			return true
		}
	}
	return false
}
