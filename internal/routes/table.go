package routes

import "sort"

// Specificity ranks templates that match the same path.
type Specificity struct {
	CatchAll      bool
	Params        int
	LiteralPrefix int
	LiteralLength int
}

// MoreSpecific reports whether s should be tried before other. Templates
// without a catch-all come first, then fewer parameters, then a longer
// literal prefix, then more literal characters overall.
func (s Specificity) MoreSpecific(other Specificity) bool {
	if s.CatchAll != other.CatchAll {
		return !s.CatchAll
	}
	if s.Params != other.Params {
		return s.Params < other.Params
	}
	if s.LiteralPrefix != other.LiteralPrefix {
		return s.LiteralPrefix > other.LiteralPrefix
	}
	return s.LiteralLength > other.LiteralLength
}

// Route binds a compiled template to the key it resolves to.
type Route struct {
	Key      string
	Template *Template
}

// Table is an immutable set of routes ordered by specificity. Routes with
// equal specificity keep their registration order.
type Table struct {
	routes []Route
}

// NewTable orders the supplied routes once. Nil templates are skipped.
func NewTable(routes []Route) *Table {
	ordered := make([]Route, 0, len(routes))
	for _, route := range routes {
		if route.Template == nil {
			continue
		}
		ordered = append(ordered, route)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Template.spec.MoreSpecific(ordered[j].Template.spec)
	})
	return &Table{routes: ordered}
}

// Match returns the most specific route matching path.
func (t *Table) Match(path string) (Route, MatchResult, bool) {
	if t == nil {
		return Route{}, MatchResult{Params: map[string]string{}}, false
	}
	for _, route := range t.routes {
		if result := route.Template.Match(path); result.Matched {
			return route, result, true
		}
	}
	return Route{}, MatchResult{Params: map[string]string{}}, false
}

// Routes returns the routes in match order.
func (t *Table) Routes() []Route {
	if t == nil {
		return nil
	}
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.routes)
}
