package risk

import (
	"sort"

	"github.com/StudioSol/set"
)

// Limits are the four-tier unit caps of the portfolio
type Limits struct {
	Single      int // per single ticker
	Correlated  int // per correlated group, tightest group binds
	Diversified int // across every ticker counted once
	Total       int // across the whole portfolio
}

// DefaultLimits returns the standard four-tier caps
func DefaultLimits() Limits {
	return Limits{Single: 4, Correlated: 6, Diversified: 10, Total: 12}
}

// Tier names the binding tier of an availability decision
type Tier string

const (
	TierSingle      Tier = "single"
	TierCorrelated  Tier = "correlated"
	TierDiversified Tier = "diversified"
	TierTotal       Tier = "total"
)

// Groups maps named correlation groups to their member tickers.
// A ticker may appear in several groups; the tightest group binds.
// Group names are iterated in sorted order so results are deterministic.
type Groups struct {
	names   []string
	members map[string]*set.LinkedHashSetString
}

// NewGroups builds correlation groups from a name to members mapping
func NewGroups(groups map[string][]string) *Groups {
	g := &Groups{
		names:   make([]string, 0, len(groups)),
		members: make(map[string]*set.LinkedHashSetString),
	}
	for name, tickers := range groups {
		g.names = append(g.names, name)
		members := set.NewLinkedHashSetString()
		for _, t := range tickers {
			members.Add(t)
		}
		g.members[name] = members
	}
	sort.Strings(g.names)
	return g
}

// Names returns the group names in sorted order
func (g *Groups) Names() []string {
	return g.names
}

// Members returns the tickers of a group in insertion order
func (g *Groups) Members(name string) []string {
	members, ok := g.members[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, members.Length())
	for t := range members.Iter() {
		out = append(out, t)
	}
	return out
}

// GroupsOf returns the names of every group containing the ticker
func (g *Groups) GroupsOf(ticker string) []string {
	var out []string
	for _, name := range g.names {
		if g.members[name].InArray(ticker) {
			out = append(out, name)
		}
	}
	return out
}

// Book maps tickers to their currently held units
type Book map[string]int

// TotalUnits sums the units across the whole book
func (b Book) TotalUnits() int {
	total := 0
	for _, units := range b {
		total += units
	}
	return total
}

// AvailableUnits computes how many additional units the four tiers permit for
// the ticker and which tier binds. Tier availability is evaluated single,
// correlated, diversified, total; on equal availability the later tier wins.
func AvailableUnits(book Book, groups *Groups, limits Limits, ticker string) (int, Tier) {
	allowed := limits.Single - book[ticker]
	tier := TierSingle

	// Tightest correlated group binds.
	if groups != nil {
		for _, name := range groups.GroupsOf(ticker) {
			groupUnits := 0
			for _, member := range groups.Members(name) {
				groupUnits += book[member]
			}
			if avail := limits.Correlated - groupUnits; avail <= allowed {
				allowed, tier = avail, TierCorrelated
			}
		}
	}

	// Every ticker's units count once regardless of group overlap, so the
	// diversified usage is the distinct-ticker total.
	if avail := limits.Diversified - book.TotalUnits(); avail <= allowed {
		allowed, tier = avail, TierDiversified
	}

	if avail := limits.Total - book.TotalUnits(); avail <= allowed {
		allowed, tier = avail, TierTotal
	}

	if allowed < 0 {
		allowed = 0
	}
	return allowed, tier
}
