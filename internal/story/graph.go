package story

import "sort"

// Edge is one directed relationship in the graph projection.
type Edge struct {
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Type     RelationType `json:"type"`
	Strength float64      `json:"strength"`
}

// Graph is the derived view over every persisted relationship. It is
// rebuilt wholesale after each committed mutation and never edited in
// place, so it always mirrors storage, soft-reset records included.
type Graph struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// Clone returns a copy that shares no backing storage with g.
func (g Graph) Clone() Graph {
	out := g
	if g.Nodes != nil {
		out.Nodes = append([]string(nil), g.Nodes...)
	}
	if g.Edges != nil {
		out.Edges = append([]Edge(nil), g.Edges...)
	}
	return out
}

// EdgeBetween returns the edge from source to target, if present.
func (g Graph) EdgeBetween(source, target string) (Edge, bool) {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return e, true
		}
	}
	return Edge{}, false
}

// BuildGraph projects the full persisted relationship set into a
// graph. Nodes are sorted and edges ordered by (source, target) so two
// builds over the same set compare equal.
func BuildGraph(pairs []Pair) Graph {
	seen := make(map[string]struct{}, len(pairs))
	g := Graph{
		Nodes: make([]string, 0, len(pairs)),
		Edges: make([]Edge, 0, len(pairs)),
	}
	for _, p := range pairs {
		for _, id := range []string{p.SourceID, p.TargetID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				g.Nodes = append(g.Nodes, id)
			}
		}
		g.Edges = append(g.Edges, Edge{
			Source:   p.SourceID,
			Target:   p.TargetID,
			Type:     p.Type,
			Strength: p.Strength,
		})
	}
	sort.Strings(g.Nodes)
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].Source != g.Edges[j].Source {
			return g.Edges[i].Source < g.Edges[j].Source
		}
		return g.Edges[i].Target < g.Edges[j].Target
	})
	return g
}
