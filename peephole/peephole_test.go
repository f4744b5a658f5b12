package peephole

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
	"github.com/rcornwell/ssabc/internal/target"
)

var gpr = regs.NewClass("gp", "Iu", []string{"eax", "ebx"})

func newCtx(a *ir.Arena) *ctx.Ctx {
	a.Start = a.Blocks[0]
	return ctx.New(a, target.Default(target.IA32), nil)
}

func TestConstZeroToXor(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	id := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 0})
	a.Node(id).Attr = attr.WithImmediate(
		attr.Common{Mnemonic: "ia32_Const", OutReqs: []regs.Requirement{{Class: gpr, Kind: regs.ReqNormal}}},
		&attr.Immediate{Value: 0},
	)

	c := newCtx(a)
	order := map[ir.NodeId][]ir.NodeId{block: {id}}
	Run(c, order, []Rule{ConstZeroToXor})

	got := order[block][0]
	a2, _ := backendAttr(c, got)
	if a2.Common.Mnemonic != "ia32_Xor0" {
		t.Errorf("Mnemonic = %s, want ia32_Xor0", a2.Common.Mnemonic)
	}
}

func TestTestAfterFlagsElision(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	base := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 1})
	sub := a.NewNode(ir.OpSub, ir.ModeIu, block, []ir.NodeId{base, base}, nil)
	test := a.NewNode(ir.OpAnd, ir.ModeIu, block, []ir.NodeId{sub, sub}, nil)

	a.Node(sub).Attr = attr.NewCommon(attr.Common{Mnemonic: "ia32_Sub"})
	a.Node(test).Attr = attr.NewCommon(attr.Common{Mnemonic: "ia32_Test"})

	c := newCtx(a)
	order := map[ir.NodeId][]ir.NodeId{block: {sub, test}}
	Run(c, order, []Rule{TestAfterFlagsElision})

	a2, _ := backendAttr(c, test)
	if !a2.Common.Dead {
		t.Errorf("Test instruction should have been marked Dead")
	}
	if _, stillScheduled := findIn(order[block], test); stillScheduled {
		t.Errorf("elided Test should have been compacted out of the block's schedule")
	}
}

func findIn(seq []ir.NodeId, id ir.NodeId) (int, bool) {
	for i, s := range seq {
		if s == id {
			return i, true
		}
	}
	return -1, false
}
