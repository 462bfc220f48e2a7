package graph

// Soft visibility mask. Hiding never touches the adjacency lists.

// IsHidden reports whether id is currently masked.
func (g *Graph) IsHidden(id string) bool {
	_, ok := g.hidden[id]
	return ok
}

// HideNode masks id from enumerations and queries.
func (g *Graph) HideNode(id string) {
	g.hidden[id] = struct{}{}
	g.numEdges = -1
}

// UnhideNode restores id.
func (g *Graph) UnhideNode(id string) {
	delete(g.hidden, id)
	g.numEdges = -1
}

// HideNodes masks every node in ids.
func (g *Graph) HideNodes(ids []string) {
	for _, id := range ids {
		g.HideNode(id)
	}
}

// UnhideNodes restores every node in ids.
func (g *Graph) UnhideNodes(ids []string) {
	for _, id := range ids {
		g.UnhideNode(id)
	}
}

// UnhideAll clears the mask.
func (g *Graph) UnhideAll() {
	g.hidden = make(map[string]struct{})
	g.numEdges = -1
}

// HideAll masks every inserted node. The mask is cleared first so that the
// enumeration covers nodes that were already hidden.
func (g *Graph) HideAll() {
	g.UnhideAll()
	for _, id := range g.Nodes() {
		g.hidden[id] = struct{}{}
	}
}

// HiddenNodes returns the masked nodes in insertion order.
func (g *Graph) HiddenNodes() []string {
	result := make([]string, 0, len(g.hidden))
	seen := make(map[string]struct{}, len(g.hidden))
	for _, node := range g.order {
		for _, id := range append([]string{node}, g.adj[node]...) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if g.IsHidden(id) {
				result = append(result, id)
			}
		}
	}
	return result
}
