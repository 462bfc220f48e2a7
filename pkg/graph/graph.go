// Package graph holds the weighted adjacency structure used by the
// community detection algorithms: insertion-ordered successor lists, a soft
// visibility mask, an explicit edge weight table and cached out-weights.
//
// A Graph is not safe for concurrent mutation. A single run owns it.
package graph

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// EdgeKey identifies a directed (src, dst) pair in the weight tables.
type EdgeKey struct {
	From string
	To   string
}

// String returns the "src,trg" encoding used by edge attribute files.
func (k EdgeKey) String() string {
	return k.From + "," + k.To
}

// ParseEdgeKey reverses EdgeKey.String.
func ParseEdgeKey(s string) (EdgeKey, bool) {
	from, to, ok := strings.Cut(s, ",")
	if !ok {
		return EdgeKey{}, false
	}
	return EdgeKey{From: from, To: to}, true
}

// Graph is a weighted adjacency structure keyed by string node ids.
type Graph struct {
	directed   bool
	sourceFile string
	report     LoadReport

	// order holds adjacency keys in insertion order so that every
	// enumeration is deterministic.
	order  []string
	adj    map[string][]string
	hidden map[string]struct{}

	weights         map[EdgeKey]float64
	optionalWeights map[EdgeKey]float64
	outWeights      map[string]float64

	sortWeights      bool
	sortedWeights    []float64
	sortedOutWeights []float64

	// numEdges is -1 when not calculated
	numEdges int
}

// New creates an empty graph.
func New(directed bool) *Graph {
	return &Graph{
		directed:        directed,
		adj:             make(map[string][]string),
		hidden:          make(map[string]struct{}),
		weights:         make(map[EdgeKey]float64),
		optionalWeights: make(map[EdgeKey]float64),
		outWeights:      make(map[string]float64),
		numEdges:        -1,
	}
}

// IsDirected reports whether edges were inserted in one direction only.
func (g *Graph) IsDirected() bool {
	return g.directed
}

// SourceFile returns the path the graph was loaded from, if any.
func (g *Graph) SourceFile() string {
	return g.sourceFile
}

// LoadReport returns the ingestion statistics of Load.
func (g *Graph) LoadReport() LoadReport {
	return g.report
}

// AddNode registers a node without edges. Existing nodes are left untouched.
func (g *Graph) AddNode(id string) {
	if _, ok := g.adj[id]; ok {
		return
	}
	g.adj[id] = []string{}
	g.order = append(g.order, id)
}

// AddEdge inserts src -> dst, and dst -> src for undirected graphs.
// Self-loops are rejected. Returns false when nothing was inserted.
func (g *Graph) AddEdge(src, dst string) bool {
	if src == dst {
		return false
	}
	added := g.addArc(src, dst)
	if g.directed {
		g.AddNode(dst)
	} else if g.addArc(dst, src) {
		added = true
	}
	if added {
		g.numEdges = -1
	}
	return added
}

func (g *Graph) addArc(src, dst string) bool {
	g.AddNode(src)
	if slices.Contains(g.adj[src], dst) {
		return false
	}
	g.adj[src] = append(g.adj[src], dst)
	return true
}

// HasNode reports whether id was ever inserted (hidden or not).
func (g *Graph) HasNode(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Nodes returns every visible node. Each adjacency key is listed in
// insertion order, immediately followed by those of its successors not
// seen yet.
func (g *Graph) Nodes() []string {
	seen := make(map[string]struct{}, len(g.adj))
	result := make([]string, 0, len(g.adj))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		if !g.IsHidden(id) {
			result = append(result, id)
		}
	}
	for _, node := range g.order {
		add(node)
		for _, s := range g.adj[node] {
			add(s)
		}
	}
	return result
}

// NumberNodes returns the number of visible nodes.
func (g *Graph) NumberNodes() int {
	return len(g.Nodes())
}

// Successors returns a copy of the successors of id with hidden nodes
// removed. Callers may mutate the result freely.
func (g *Graph) Successors(id string) []string {
	if g.IsHidden(id) {
		return []string{}
	}
	succ := g.adj[id]
	result := make([]string, 0, len(succ))
	for _, s := range succ {
		if !g.IsHidden(s) {
			result = append(result, s)
		}
	}
	return result
}

// RawSuccessors returns the live successor list of id without filtering
// hidden successors. The slice must not be modified.
func (g *Graph) RawSuccessors(id string) []string {
	if g.IsHidden(id) {
		return nil
	}
	return g.adj[id]
}

// HasEdge reports whether src -> dst is present in the adjacency.
func (g *Graph) HasEdge(src, dst string) bool {
	return slices.Contains(g.adj[src], dst)
}

// Predecessors returns every visible node with an edge into id.
// It scans the entire adjacency structure.
func (g *Graph) Predecessors(id string) []string {
	if g.IsHidden(id) {
		return []string{}
	}
	result := []string{}
	for _, p := range g.order {
		if g.IsHidden(p) {
			continue
		}
		if slices.Contains(g.adj[p], id) {
			result = append(result, p)
		}
	}
	return result
}

// NumberEdges counts adjacency pairs between visible nodes and halves the
// total. The count is only correct when every edge is stored in both
// directions, as undirected loading does.
func (g *Graph) NumberEdges(force bool) int {
	if g.numEdges >= 0 && !force {
		return g.numEdges
	}
	n := 0
	for _, node := range g.order {
		if g.IsHidden(node) {
			continue
		}
		for _, s := range g.adj[node] {
			if !g.IsHidden(s) {
				n++
			}
		}
	}
	g.numEdges = n / 2
	return g.numEdges
}

// RemoveNode deletes id and every edge pointing to it.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.adj[id]; !ok {
		return
	}
	delete(g.adj, id)
	g.order = slices.DeleteFunc(g.order, func(n string) bool { return n == id })
	for _, node := range g.order {
		g.adj[node] = slices.DeleteFunc(g.adj[node], func(n string) bool { return n == id })
	}
	g.numEdges = -1
}

// RemoveNodes deletes every node in ids.
func (g *Graph) RemoveNodes(ids []string) {
	for _, id := range ids {
		g.RemoveNode(id)
	}
}

// RemoveEdge deletes src -> dst, plus dst -> src unless directed. With
// removeEmptyNodes, endpoints left without successors are deleted too.
func (g *Graph) RemoveEdge(src, dst string, directed, removeEmptyNodes bool) {
	g.adj[src] = slices.DeleteFunc(g.adj[src], func(n string) bool { return n == dst })
	if !directed {
		g.adj[dst] = slices.DeleteFunc(g.adj[dst], func(n string) bool { return n == src })
	}
	g.numEdges = -1
	if !removeEmptyNodes {
		return
	}
	for _, n := range []string{src, dst} {
		if succ, ok := g.adj[n]; ok && len(succ) == 0 {
			g.RemoveNode(n)
		}
	}
}

// KeepOnly deletes every visible node that is not in group.
func (g *Graph) KeepOnly(group []string) {
	keep := make(map[string]struct{}, len(group))
	for _, n := range group {
		keep[n] = struct{}{}
	}
	var others []string
	for _, n := range g.Nodes() {
		if _, ok := keep[n]; !ok {
			others = append(others, n)
		}
	}
	g.RemoveNodes(others)
}

// Clone returns a deep copy of adjacency, visibility and out-weights.
// The weight table is shared with the original.
func (g *Graph) Clone() *Graph {
	c := New(g.directed)
	c.sourceFile = g.sourceFile
	c.report = g.report
	c.order = slices.Clone(g.order)
	for k, v := range g.adj {
		c.adj[k] = slices.Clone(v)
	}
	for k := range g.hidden {
		c.hidden[k] = struct{}{}
	}
	c.weights = g.weights
	c.optionalWeights = g.optionalWeights
	for k, v := range g.outWeights {
		c.outWeights[k] = v
	}
	c.sortWeights = g.sortWeights
	c.sortedWeights = slices.Clone(g.sortedWeights)
	c.sortedOutWeights = slices.Clone(g.sortedOutWeights)
	return c
}

// Write dumps the adjacency as Source/Target/EdgeWeight rows.
func (g *Graph) Write(w io.Writer, writeHidden bool) error {
	if _, err := io.WriteString(w, "Source\tTarget\tEdgeWeight\n"); err != nil {
		return err
	}
	for _, s := range g.order {
		if !writeHidden && g.IsHidden(s) {
			continue
		}
		for _, t := range g.adj[s] {
			if !writeHidden && g.IsHidden(t) {
				continue
			}
			weight, err := g.Weight(s, t)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%v\n", s, t, weight); err != nil {
				return err
			}
		}
	}
	return nil
}
