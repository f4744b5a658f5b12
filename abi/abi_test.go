package abi

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
	"github.com/rcornwell/ssabc/internal/target"
)

func TestPlaceArgsAMD64UsesRegistersFirst(t *testing.T) {
	gpr := regs.NewClass("gp", "Lu", []string{"rax", "rdi", "rsi", "rdx", "rcx", "r8", "r9"})
	cc := For(target.Default(target.AMD64), gpr)

	placements := cc.PlaceArgs([]ir.Mode{ir.ModeIu, ir.ModeIu})
	if placements[0].Reg == nil || placements[0].Reg.Name != "rdi" {
		t.Errorf("first arg should land in rdi, got %+v", placements[0])
	}
	if placements[1].Reg == nil || placements[1].Reg.Name != "rsi" {
		t.Errorf("second arg should land in rsi, got %+v", placements[1])
	}
}

func TestPlaceArgsCdeclUsesStack(t *testing.T) {
	gpr := regs.NewClass("gp", "Iu", []string{"eax"})
	cc := For(target.Default(target.IA32), gpr)

	placements := cc.PlaceArgs([]ir.Mode{ir.ModeIu, ir.ModeIu})
	for i, p := range placements {
		if p.Reg != nil {
			t.Errorf("arg %d should be on the stack under cdecl, got register %s", i, p.Reg.Name)
		}
	}
	if placements[1].StackOffset != 4 {
		t.Errorf("second stack arg offset = %d, want 4", placements[1].StackOffset)
	}
}

func TestSplitDoubleArg(t *testing.T) {
	r0 := &regs.Register{Name: "r0"}
	r1 := &regs.Register{Name: "r1"}
	placements := []Placement{{}, {}}
	out := SplitDoubleArg(placements, 1, r0, r1)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	if out[1].Reg != r0 || out[2].Reg != r1 {
		t.Errorf("split halves in wrong order: %+v", out)
	}
}
