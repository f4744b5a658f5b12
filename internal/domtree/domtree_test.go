package domtree

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/ir"
)

// diamond builds entry -> {left, right} -> merge and returns their ids.
func diamond(a *ir.Arena) (entry, left, right, merge ir.NodeId) {
	entry = a.AddBlock(nil)
	a.Start = entry
	sel := a.NewNode(ir.OpConst, ir.ModeIu, entry, nil, ir.ConstAttr{Value: 0})
	cond := a.NewNode(ir.OpCond, ir.ModeX, entry, []ir.NodeId{sel}, nil)
	left = a.AddBlock([]ir.NodeId{cond})
	right = a.AddBlock([]ir.NodeId{cond})
	merge = a.AddBlock([]ir.NodeId{left, right})
	return
}

func TestIDomOnDiamond(t *testing.T) {
	a := ir.NewArena()
	entry, left, right, merge := diamond(a)
	tree := Build(a, entry)

	if got := tree.IDom(left); got != entry {
		t.Errorf("IDom(left) = %d, want entry %d", got, entry)
	}
	if got := tree.IDom(right); got != entry {
		t.Errorf("IDom(right) = %d, want entry %d", got, entry)
	}
	if got := tree.IDom(merge); got != entry {
		t.Errorf("IDom(merge) = %d, want entry %d (neither arm strictly dominates merge)", got, entry)
	}
	if got := tree.IDom(entry); got != entry {
		t.Errorf("IDom(entry) = %d, want entry %d", got, entry)
	}
}

func TestDominatesOnDiamond(t *testing.T) {
	a := ir.NewArena()
	entry, left, right, merge := diamond(a)
	tree := Build(a, entry)

	if !tree.Dominates(entry, merge) {
		t.Errorf("expected entry to dominate merge")
	}
	if tree.Dominates(left, merge) {
		t.Errorf("left must not dominate merge: right reaches merge without passing through left")
	}
	if tree.Dominates(right, left) {
		t.Errorf("right must not dominate left")
	}
	if !tree.Dominates(entry, entry) {
		t.Errorf("Dominates must be reflexive")
	}
}

func TestDominanceFrontierOnDiamond(t *testing.T) {
	a := ir.NewArena()
	_, left, right, merge := diamond(a)
	tree := Build(a, a.Start)

	for _, b := range []ir.NodeId{left, right} {
		df := tree.DominanceFrontier(b)
		if len(df) != 1 || df[0] != merge {
			t.Errorf("DominanceFrontier(%d) = %v, want [%d]", b, df, merge)
		}
	}
}

func TestIteratedDominanceFrontier(t *testing.T) {
	a := ir.NewArena()
	_, left, right, merge := diamond(a)
	tree := Build(a, a.Start)

	idf := tree.IteratedDominanceFrontier([]ir.NodeId{left, right})
	if len(idf) != 1 || idf[0] != merge {
		t.Errorf("IteratedDominanceFrontier(left, right) = %v, want [%d]", idf, merge)
	}
}

func TestReversePostorderVisitsEntryFirst(t *testing.T) {
	a := ir.NewArena()
	entry, _, _, merge := diamond(a)
	tree := Build(a, entry)

	order := tree.ReversePostorder()
	if len(order) == 0 || order[0] != entry {
		t.Fatalf("ReversePostorder()[0] = %v, want entry %d first", order, entry)
	}
	if order[len(order)-1] != merge {
		t.Errorf("ReversePostorder() last = %d, want merge %d last", order[len(order)-1], merge)
	}
}
