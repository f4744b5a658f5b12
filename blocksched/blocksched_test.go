package blocksched

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/domtree"
	"github.com/rcornwell/ssabc/internal/ir"
)

// Builds entry -> then -> join and entry -> else -> join, a diamond where
// "then" is entry's sole single-predecessor successor and should be laid
// out immediately after it.
func TestOrderExtendsFallthroughChain(t *testing.T) {
	a := ir.NewArena()
	entry := a.AddBlock(nil)
	a.Start = entry
	then := a.AddBlock([]ir.NodeId{entry})
	els := a.AddBlock([]ir.NodeId{entry})
	join := a.AddBlock([]ir.NodeId{then, els})

	dom := domtree.Build(a, entry)
	order := Order(a, dom.ReversePostorder())

	idx := func(id ir.NodeId) int {
		for i, b := range order {
			if b == id {
				return i
			}
		}
		t.Fatalf("block %d missing from order %v", id, order)
		return -1
	}

	if idx(then) != idx(entry)+1 {
		t.Errorf("then should directly follow entry in %v", order)
	}
	if idx(join) <= idx(els) || idx(join) <= idx(then) {
		t.Errorf("join should come after both arms in %v", order)
	}
}

func TestNeedsJump(t *testing.T) {
	order := []ir.NodeId{0, 1, 2}
	if NeedsJump(order, 0, 1) {
		t.Errorf("order[0]->order[1] is a fall-through, should not need a jump")
	}
	if !NeedsJump(order, 0, 2) {
		t.Errorf("order[0]->order[2] skips order[1], should need a jump")
	}
	if !NeedsJump(order, 2, 0) {
		t.Errorf("last block has no successor slot, should need a jump")
	}
}
