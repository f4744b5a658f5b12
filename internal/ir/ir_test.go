package ir

import "testing"

func TestModeSizeAndSigned(t *testing.T) {
	cases := []struct {
		m      Mode
		size   int
		signed bool
	}{
		{ModeBu, 1, false},
		{ModeBs, 1, true},
		{ModeHu, 2, false},
		{ModeIu, 4, false},
		{ModeIs, 4, true},
		{ModeLu, 8, false},
		{ModeLs, 8, true},
		{ModeF, 4, false},
		{ModeD, 8, false},
		{ModeP, 4, false},
		{ModeM, 0, false},
		{ModeX, 0, false},
		{ModeT, 0, false},
	}
	for _, c := range cases {
		if got := c.m.Size(); got != c.size {
			t.Errorf("Mode(%d).Size() = %d, want %d", c.m, got, c.size)
		}
		if got := c.m.Signed(); got != c.signed {
			t.Errorf("Mode(%d).Signed() = %v, want %v", c.m, got, c.signed)
		}
	}
}

func TestOpcodeString(t *testing.T) {
	if OpAdd.String() != "Add" {
		t.Errorf("OpAdd.String() = %q, want Add", OpAdd.String())
	}
	if Opcode(9999).String() != "Opcode(?)" {
		t.Errorf("unknown opcode did not fall back to Opcode(?)")
	}
}

func TestPnCodeNegated(t *testing.T) {
	pairs := [][2]PnCode{
		{PnEq, PnNe}, {PnNe, PnEq}, {PnLt, PnGe}, {PnGe, PnLt},
		{PnLe, PnGt}, {PnGt, PnLe}, {PnTrue, PnFalse},
	}
	for _, p := range pairs {
		if got := p[0].Negated(); got != p[1] {
			t.Errorf("%v.Negated() = %v, want %v", p[0], got, p[1])
		}
		if got := p[1].Negated(); got != p[0] {
			t.Errorf("%v.Negated() = %v, want %v", p[1], got, p[0])
		}
	}
	if PnFalse.Negated() != PnTrue {
		t.Errorf("PnFalse.Negated() = %v, want PnTrue", PnFalse.Negated())
	}
}

func TestArenaNodesInBlockExcludesBlockNode(t *testing.T) {
	a := NewArena()
	b := a.AddBlock(nil)
	a.Start = b

	x := a.NewNode(OpConst, ModeIu, b, nil, ConstAttr{Value: 1})
	y := a.NewNode(OpConst, ModeIu, b, nil, ConstAttr{Value: 2})
	sum := a.NewNode(OpAdd, ModeIu, b, []NodeId{x, y}, nil)

	got := a.NodesInBlock(b)
	want := []NodeId{x, y, sum}
	if len(got) != len(want) {
		t.Fatalf("NodesInBlock = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NodesInBlock[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestArenaNewNodeCopiesInSlice(t *testing.T) {
	a := NewArena()
	b := a.AddBlock(nil)
	in := []NodeId{1, 2, 3}
	id := a.NewNode(OpAdd, ModeIu, b, in, nil)
	in[0] = 99
	if a.Node(id).In[0] == 99 {
		t.Errorf("NewNode aliased the caller's slice instead of copying it")
	}
}

func TestBlockPreds(t *testing.T) {
	a := NewArena()
	entry := a.AddBlock(nil)
	a.Start = entry
	sel := a.NewNode(OpConst, ModeIu, entry, nil, ConstAttr{Value: 0})
	cond := a.NewNode(OpCond, ModeX, entry, []NodeId{sel}, nil)
	succ := a.AddBlock([]NodeId{cond})

	preds := a.BlockPreds(succ)
	if len(preds) != 1 || preds[0] != cond {
		t.Errorf("BlockPreds(succ) = %v, want [%d]", preds, cond)
	}
}
