package domain

// SeatingType categorizes physical seating; bookings carry a matching preference.
type SeatingType string

const (
	SeatingStandard SeatingType = "standard"
	SeatingBooth    SeatingType = "booth"
	SeatingBar      SeatingType = "bar"
	SeatingOutdoor  SeatingType = "outdoor"
	// SeatingAny is only valid as a booking preference, never on a table.
	SeatingAny SeatingType = "any"
)

// Table is a read-only snapshot of one physical table. Inactive tables are
// never allocation candidates.
type Table struct {
	ID           string
	RestaurantID string
	TableNumber  string
	Capacity     int
	SeatingType  SeatingType
	ZoneID       string
	Active       bool
}

// MatchesPreference reports whether the table satisfies a seating preference.
func (t Table) MatchesPreference(pref SeatingType) bool {
	return pref == "" || pref == SeatingAny || t.SeatingType == pref
}

// Adjacency is an undirected table adjacency graph keyed by table id.
type Adjacency map[string]map[string]bool

// NewAdjacency builds a symmetric graph from edge pairs.
func NewAdjacency(edges [][2]string) Adjacency {
	adj := make(Adjacency)
	for _, e := range edges {
		adj.AddEdge(e[0], e[1])
	}
	return adj
}

func (a Adjacency) AddEdge(x, y string) {
	if x == "" || y == "" || x == y {
		return
	}
	if a[x] == nil {
		a[x] = make(map[string]bool)
	}
	if a[y] == nil {
		a[y] = make(map[string]bool)
	}
	a[x][y] = true
	a[y][x] = true
}

func (a Adjacency) Adjacent(x, y string) bool {
	return a[x][y] || a[y][x]
}

// Connected reports whether the given table ids form a single connected
// component of the adjacency graph. Zero or one table is trivially connected.
// The returned depth map holds BFS distance from the first id for every
// reachable member; unreachable members are absent.
func (a Adjacency) Connected(ids []string) (bool, map[string]int) {
	depths := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return true, depths
	}
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	queue := []string{ids[0]}
	depths[ids[0]] = 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for neighbor := range a[current] {
			if !member[neighbor] {
				continue
			}
			if _, seen := depths[neighbor]; seen {
				continue
			}
			depths[neighbor] = depths[current] + 1
			queue = append(queue, neighbor)
		}
	}
	return len(depths) == len(ids), depths
}
