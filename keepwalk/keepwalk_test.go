package keepwalk

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/ir"
)

func TestRunAddsKeepForUnusedProj(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block

	divmod := a.NewNode(ir.OpDivMod, ir.ModeT, block, nil, nil)
	quot := a.NewNode(ir.OpProj, ir.ModeIs, block, []ir.NodeId{divmod}, &ir.ProjAttr{Num: 0})
	// quot is used; remainder (Num 1) never gets a Proj at all.
	a.NewNode(ir.OpAdd, ir.ModeIs, block, []ir.NodeId{quot, quot}, nil)

	added := Run(a)
	if len(added) == 0 {
		t.Fatalf("expected at least one synthesized Keep for the unprojed remainder")
	}
	for _, k := range added {
		if a.Node(k).Op != ir.OpKeep {
			t.Errorf("synthesized node %d has Op %v, want OpKeep", k, a.Node(k).Op)
		}
	}
}

func TestRunCollapsesDuplicateProjs(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block

	call := a.NewNode(ir.OpCall, ir.ModeT, block, nil, nil)
	p1 := a.NewNode(ir.OpProj, ir.ModeIs, block, []ir.NodeId{call}, &ir.ProjAttr{Num: 0})
	p2 := a.NewNode(ir.OpProj, ir.ModeIs, block, []ir.NodeId{call}, &ir.ProjAttr{Num: 0})
	user := a.NewNode(ir.OpAdd, ir.ModeIs, block, []ir.NodeId{p2, p2}, nil)

	Run(a)

	for _, in := range a.Node(user).In {
		if in == p2 {
			t.Errorf("user still references duplicate Proj %d, want retargeted to %d", p2, p1)
		}
	}
}
