package graphview

import "testing"

func TestAddEdgeRegistersNodes(t *testing.T) {
	g := New[string, int]()

	g.AddEdge("a", "b", 5)

	if g.NumNodes() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.NumNodes())
	}
	if g.NumEdges() != 1 {
		t.Errorf("expected 1 edge, got %d", g.NumEdges())
	}
}

func TestAddEdgeReplacesExisting(t *testing.T) {
	g := New[string, int]()

	g.AddEdge("a", "b", 5)
	g.AddEdge("a", "b", 9)

	if g.NumEdges() != 1 {
		t.Errorf("expected replace, not duplicate: got %d edges", g.NumEdges())
	}

	nbrs := g.Neighbors("a")
	if len(nbrs) != 1 || nbrs[0].Edge != 9 {
		t.Errorf("expected single neighbor with edge 9, got %v", nbrs)
	}
}

func TestAddNodeIsolated(t *testing.T) {
	g := New[string, int]()

	g.AddNode("solo")

	if g.NumNodes() != 1 {
		t.Errorf("expected 1 node, got %d", g.NumNodes())
	}
	if len(g.Neighbors("solo")) != 0 {
		t.Errorf("expected no neighbors for isolated node")
	}

	found := false
	for _, n := range g.Nodes() {
		if n == "solo" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected isolated node to appear in Nodes()")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := New[string, int]()

	g.AddEdge("a", "b", 1)
	g.AddEdge("a", "c", 2)

	g.RemoveEdge("a", "b")

	if g.NumEdges() != 1 {
		t.Errorf("expected 1 edge after removal, got %d", g.NumEdges())
	}

	nbrs := g.Neighbors("a")
	if len(nbrs) != 1 || nbrs[0].To != "c" {
		t.Errorf("expected only edge to c remaining, got %v", nbrs)
	}

	// both nodes remain registered even though b has no incoming/outgoing edges left
	if g.NumNodes() != 3 {
		t.Errorf("expected nodes to stay registered, got %d", g.NumNodes())
	}
}

func TestRemoveEdgeMissingIsNoop(t *testing.T) {
	g := New[string, int]()
	g.AddEdge("a", "b", 1)

	g.RemoveEdge("a", "z")

	if g.NumEdges() != 1 {
		t.Errorf("expected removal of a missing edge to be a no-op, got %d edges", g.NumEdges())
	}
}

func TestNodesStableOrder(t *testing.T) {
	g := New[int, int]()
	g.AddEdge(3, 1, 0)
	g.AddEdge(1, 2, 0)
	g.AddNode(9)

	want := []int{3, 1, 2, 9}
	got := g.Nodes()
	if len(got) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order mismatch at %d: want %d got %d", i, want[i], got[i])
		}
	}
}
