// Package dag provides directed graph operations for theorem citation
// dependencies. It supports cycle detection via strongly connected
// components, topological sorting, and parallel execution levels.
package dag

import (
	"fmt"
	"sort"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the unique identifier (theorem name)
	ID string
	// Data holds arbitrary node data
	Data interface{}
}

// Graph represents a directed citation graph. Unlike a build graph it may
// legitimately receive cycles (mutually citing theorems); cycles are
// detected and reported, never followed.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// Clear removes all nodes and edges from the graph.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*Node)
	g.edges = make(map[string][]string)
	g.parents = make(map[string][]string)
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(id string, data interface{}) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	} else {
		g.nodes[id].Data = data
	}
}

// AddEdge adds a directed edge from parent to child (child depends on
// parent). Self-loops are recorded; they surface later as one-node cycles.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}

	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents (dependencies) of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the children (dependents) of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// GetAllNodes returns all nodes in the graph.
func (g *Graph) GetAllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	// Sort for deterministic output
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// Cycles returns every citation cycle in the graph as a strongly
// connected component of two or more nodes, or a single node citing
// itself. Components are sorted internally and by first member.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, scc := range g.stronglyConnected() {
		if len(scc) > 1 {
			sort.Strings(scc)
			cycles = append(cycles, scc)
			continue
		}
		id := scc[0]
		if contains(g.edges[id], id) {
			cycles = append(cycles, scc)
		}
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})
	return cycles
}

// stronglyConnected runs Tarjan's algorithm, iteratively to stay safe on
// deep citation chains.
func (g *Graph) stronglyConnected() [][]string {
	index := make(map[string]int, len(g.nodes))
	lowlink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var stack []string
	var sccs [][]string
	next := 0

	type frame struct {
		id    string
		child int
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, root := range ids {
		if _, seen := index[root]; seen {
			continue
		}
		frames := []frame{{id: root}}
		index[root] = next
		lowlink[root] = next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.child < len(g.edges[f.id]) {
				child := g.edges[f.id][f.child]
				f.child++
				if _, seen := index[child]; !seen {
					index[child] = next
					lowlink[child] = next
					next++
					stack = append(stack, child)
					onStack[child] = true
					frames = append(frames, frame{id: child})
				} else if onStack[child] && index[child] < lowlink[f.id] {
					lowlink[f.id] = index[child]
				}
				continue
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if lowlink[f.id] < lowlink[parent.id] {
					lowlink[parent.id] = lowlink[f.id]
				}
			}
			if lowlink[f.id] == index[f.id] {
				var scc []string
				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false
					scc = append(scc, top)
					if top == f.id {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}

// TopologicalSort returns nodes in topological order (dependencies before
// dependents). Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, fmt.Errorf("cycle detected: %v", cycles[0])
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		// Visit all parents first
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}

		result = append(result, g.nodes[id])
	}

	// Sort node IDs first for deterministic order
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		visit(id)
	}

	return result, nil
}

// GetExecutionLevels returns nodes grouped by execution level. Nodes at
// level N can be verified in parallel after level N-1 completes. Level 0
// contains nodes with no dependencies.
func (g *Graph) GetExecutionLevels() ([][]string, error) {
	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, fmt.Errorf("cycle detected: %v", cycles[0])
	}

	levels := [][]string{}
	assigned := make(map[string]int)

	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}

		parents := g.parents[id]
		if len(parents) == 0 {
			assigned[id] = 0
			return 0
		}

		maxParentLevel := 0
		for _, parentID := range parents {
			parentLevel := getLevel(parentID)
			if parentLevel > maxParentLevel {
				maxParentLevel = parentLevel
			}
		}

		level := maxParentLevel + 1
		assigned[id] = level
		return level
	}

	maxLevel := 0
	for id := range g.nodes {
		level := getLevel(id)
		if level > maxLevel {
			maxLevel = level
		}
	}

	for i := 0; i <= maxLevel; i++ {
		levels = append(levels, []string{})
	}
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}

	// Sort each level for deterministic output
	for i := range levels {
		sort.Strings(levels[i])
	}

	return levels, nil
}

// GetAffectedNodes returns all nodes affected by the given nodes: the
// nodes themselves and every downstream dependent.
func (g *Graph) GetAffectedNodes(changedIDs []string) []string {
	affected := make(map[string]bool)

	var markAffected func(id string)
	markAffected = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true

		for _, childID := range g.edges[id] {
			markAffected(childID)
		}
	}

	for _, id := range changedIDs {
		if _, exists := g.nodes[id]; exists {
			markAffected(id)
		}
	}

	result := make([]string, 0, len(affected))
	for id := range affected {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// GetUpstreamNodes returns all nodes upstream of the given node (its
// dependencies and their dependencies).
func (g *Graph) GetUpstreamNodes(id string) []string {
	upstream := make(map[string]bool)

	var markUpstream func(nodeID string)
	markUpstream = func(nodeID string) {
		for _, parentID := range g.parents[nodeID] {
			if !upstream[parentID] {
				upstream[parentID] = true
				markUpstream(parentID)
			}
		}
	}

	markUpstream(id)

	result := make([]string, 0, len(upstream))
	for nodeID := range upstream {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// GetRoots returns nodes with no parents (no dependencies).
func (g *Graph) GetRoots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// GetLeaves returns nodes with no children (no dependents).
func (g *Graph) GetLeaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns a new graph containing only the specified nodes and
// the edges between them.
func (g *Graph) Subgraph(nodeIDs []string) *Graph {
	subgraph := NewGraph()
	nodeSet := make(map[string]bool)

	for _, id := range nodeIDs {
		nodeSet[id] = true
		if node, exists := g.nodes[id]; exists {
			subgraph.AddNode(id, node.Data)
		}
	}

	for _, id := range nodeIDs {
		for _, childID := range g.edges[id] {
			if nodeSet[childID] {
				_ = subgraph.AddEdge(id, childID)
			}
		}
	}

	return subgraph
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
