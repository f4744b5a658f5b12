package addrmode

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/ir"
)

type testGraph struct{ a *ir.Arena }

func (g testGraph) Node(id ir.NodeId) *ir.Node { return g.a.Node(id) }

func TestMatchBasePlusIndexScaleOffset(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)

	base := a.NewNode(ir.OpLoad, ir.ModeP, block, nil, nil) // stand-in pointer value
	idxVal := a.NewNode(ir.OpLoad, ir.ModeIu, block, nil, nil)
	three := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 3})
	shl := a.NewNode(ir.OpShl, ir.ModeIu, block, []ir.NodeId{idxVal, three}, nil)
	seven := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 7})
	addInner := a.NewNode(ir.OpAdd, ir.ModeP, block, []ir.NodeId{base, shl}, nil)
	addOuter := a.NewNode(ir.OpAdd, ir.ModeP, block, []ir.NodeId{addInner, seven}, nil)

	g := testGraph{a}
	m, ok := Match(g, addOuter, 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Base != base {
		t.Errorf("Base = %v, want %v", m.Base, base)
	}
	if m.Index != idxVal {
		t.Errorf("Index = %v, want %v", m.Index, idxVal)
	}
	if m.Scale != 3 {
		t.Errorf("Scale = %d, want 3", m.Scale)
	}
	if m.Offset != 7 {
		t.Errorf("Offset = %d, want 7", m.Offset)
	}
}

func TestMatchSymConst(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	ent := &ir.Entity{Name: "g_counter", Kind: ir.EntityGlobal}
	sym := a.NewNode(ir.OpSymConst, ir.ModeP, block, nil, ir.SymConstAttr{Entity: ent, Kind: ir.SymConstAddr})

	g := testGraph{a}
	m, ok := Match(g, sym, 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Symbol != ent {
		t.Errorf("Symbol = %v, want %v", m.Symbol, ent)
	}
	if m.SymbolSign {
		t.Error("SymbolSign should default false")
	}
}

func TestMatchFrameAddrRequiresEntity(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	slot := &ir.Entity{Name: "spill0", Kind: ir.EntityFrameSlot}
	fa := a.NewNode(ir.OpFrameAddr, ir.ModeP, block, nil, ir.FrameAddrAttr{Entity: slot})

	g := testGraph{a}
	m, ok := Match(g, fa, 0)
	if !ok {
		t.Fatal("expected a match")
	}
	if !m.UseFrame {
		t.Error("UseFrame should be true")
	}
	if m.FrameEntity != slot {
		t.Errorf("FrameEntity = %v, want %v", m.FrameEntity, slot)
	}
}

func TestMatchPlainBaseDeclinesWithoutForce(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	base := a.NewNode(ir.OpLoad, ir.ModeP, block, nil, nil)

	g := testGraph{a}
	if _, ok := Match(g, base, 0); ok {
		t.Error("a bare base node should not match without ForceCreate")
	}
	m, ok := Match(g, base, ForceCreate)
	if !ok {
		t.Fatal("ForceCreate should allow a degenerate match")
	}
	if m.Base != base {
		t.Errorf("Base = %v, want %v", m.Base, base)
	}
}

func TestSourceAllowedRefusesCrossBlock(t *testing.T) {
	a := ir.NewArena()
	b1 := a.AddBlock(nil)
	b2 := a.AddBlock([]ir.NodeId{b1})
	load := a.NewNode(ir.OpLoad, ir.ModeIu, b1, []ir.NodeId{ir.Invalid}, nil)

	g := testGraph{a}
	if SourceAllowed(g, b2, load, 1, ir.Invalid, 0) {
		t.Error("cross-block source AM should be refused")
	}
	if !SourceAllowed(g, b1, load, 1, ir.Invalid, 0) {
		t.Error("same-block single-use source AM should be allowed")
	}
}

func TestSourceAllowedRefusesMultiUseWithoutDoubleUse(t *testing.T) {
	a := ir.NewArena()
	b1 := a.AddBlock(nil)
	load := a.NewNode(ir.OpLoad, ir.ModeIu, b1, []ir.NodeId{ir.Invalid}, nil)
	g := testGraph{a}

	if SourceAllowed(g, b1, load, 2, ir.Invalid, 0) {
		t.Error("multi-use load should be refused without DoubleUse")
	}
	if !SourceAllowed(g, b1, load, 2, ir.Invalid, DoubleUse) {
		t.Error("multi-use load should be allowed with DoubleUse")
	}
}
