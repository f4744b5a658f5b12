package intrinsics

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
)

func newCtx(arch target.Arch) (*ctx.Ctx, *ir.Arena) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	return ctx.New(a, target.Default(arch), nil), a
}

func TestLowerPopcountUsesHardwareOnAMD64WithFeature(t *testing.T) {
	c, a := newCtx(target.AMD64)
	c.Target.CPU["popcnt"] = true

	id := a.NewNode(ir.OpConst, ir.ModeIu, a.Start, nil, nil)
	Lower(c, id, Popcount)

	got := a.Node(id).Attr.(*attr.Node).Common.Mnemonic
	if got != "popcnt" {
		t.Errorf("Mnemonic = %q, want popcnt", got)
	}
}

func TestLowerPopcountFallsBackToRuntimeHelper(t *testing.T) {
	c, a := newCtx(target.IA32)

	id := a.NewNode(ir.OpConst, ir.ModeIu, a.Start, nil, nil)
	Lower(c, id, Popcount)

	node := a.Node(id)
	if node.Op != ir.OpCall {
		t.Fatalf("Op = %v, want OpCall", node.Op)
	}
	call, err := node.Attr.(*attr.Node).AsCall()
	if err != nil {
		t.Fatalf("AsCall: %v", err)
	}
	if call.Entity.Name != "__popcountsi2" {
		t.Errorf("helper entity = %q, want __popcountsi2", call.Entity.Name)
	}
}

func TestLowerTrapIsAlwaysHardware(t *testing.T) {
	c, a := newCtx(target.Template)

	id := a.NewNode(ir.OpConst, ir.ModeNone, a.Start, nil, nil)
	Lower(c, id, Trap)

	got := a.Node(id).Attr.(*attr.Node).Common.Mnemonic
	if got != "ud2" {
		t.Errorf("Mnemonic = %q, want ud2", got)
	}
}
