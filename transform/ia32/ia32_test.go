package ia32

import (
	"strings"
	"testing"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
)

func newCtx(a *ir.Arena) *ctx.Ctx {
	return ctx.New(a, target.Default(target.IA32), nil)
}

func TestSelectConstSetsFormat(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	id := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 42})

	n, ok := New().Select(newCtx(a), id)
	if !ok {
		t.Fatal("Select declined OpConst")
	}
	if n.Common.Mnemonic != "ia32_Const" {
		t.Errorf("Mnemonic = %q, want ia32_Const", n.Common.Mnemonic)
	}
	if n.Common.AsmText != "mov%M %I, %D0" {
		t.Errorf("AsmText = %q, want mov%%M %%I, %%D0", n.Common.AsmText)
	}
}

// TestSelectAddNoFold builds Add(load, load): neither operand is constant,
// SymConst or a shifted index, so addrmode.Match declines the fold and the
// selector must fall back to the plain ia32_Add format string rather than
// silently leaving AsmText empty.
func TestSelectAddNoFold(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	p := a.NewNode(ir.OpConst, ir.ModeP, block, nil, ir.ConstAttr{Value: 100})
	lhs := a.NewNode(ir.OpLoad, ir.ModeIu, block, []ir.NodeId{p}, nil)
	rhs := a.NewNode(ir.OpLoad, ir.ModeIu, block, []ir.NodeId{p}, nil)
	add := a.NewNode(ir.OpAdd, ir.ModeIu, block, []ir.NodeId{lhs, rhs}, nil)

	n, ok := New().Select(newCtx(a), add)
	if !ok {
		t.Fatal("Select declined OpAdd")
	}
	if n.Common.Mnemonic != "ia32_Add" {
		t.Errorf("Mnemonic = %q, want ia32_Add (no AM fold expected)", n.Common.Mnemonic)
	}
	if n.Common.AsmText != "add%M %AS1, %D0" {
		t.Errorf("AsmText = %q, want add%%M %%AS1, %%D0", n.Common.AsmText)
	}
}

func TestSelectReturnEmitsRet(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	v := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 1})
	ret := a.NewNode(ir.OpReturn, ir.ModeX, block, []ir.NodeId{v}, nil)

	n, ok := New().Select(newCtx(a), ret)
	if !ok {
		t.Fatal("Select declined OpReturn")
	}
	if n.Common.Mnemonic != "ia32_Ret" {
		t.Errorf("Mnemonic = %q, want ia32_Ret", n.Common.Mnemonic)
	}
	if n.Common.AsmText != "ret" {
		t.Errorf("AsmText = %q, want ret", n.Common.AsmText)
	}
}

func TestFormatTableCoversEverySelectMnemonic(t *testing.T) {
	mnemonics := []string{
		"ia32_Const", "ia32_Add", "ia32_Sub", "ia32_And", "ia32_Or", "ia32_Eor",
		"ia32_Lea", "ia32_Mul", "ia32_Mulh", "ia32_Div", "ia32_Mod", "ia32_DivMod",
		"ia32_Shl", "ia32_Shr", "ia32_Shrs", "ia32_Rotl", "ia32_Load", "ia32_Store",
		"ia32_Conv", "ia32_Jcc", "ia32_Switch", "ia32_Ret",
	}
	for _, m := range mnemonics {
		if format[m] == "" {
			t.Errorf("format table missing entry for %s", m)
		}
	}
}

func setccCmp(a *ir.Arena, block ir.NodeId) ir.NodeId {
	x := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 3})
	y := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 4})
	return a.NewNode(ir.OpCmp, ir.Modeb, block, []ir.NodeId{x, y}, ir.CmpAttr{Code: ir.PnLt})
}

func TestSetccBareBoolean(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	cmp := setccCmp(a, block)

	n, ok := New().Setcc(newCtx(a), cmp, ir.PnLt, true, 1, 0)
	if !ok {
		t.Fatal("Setcc declined")
	}
	if n.Common.Mnemonic != "ia32_Setcc" {
		t.Errorf("Mnemonic = %q, want ia32_Setcc", n.Common.Mnemonic)
	}
	want := "set%P %D9\n\tmovzbl %D9, %D9"
	if n.Common.AsmText != want {
		t.Errorf("AsmText = %q, want %q", n.Common.AsmText, want)
	}
	if n.Tag != attr.TagCondCode || n.CondCode.Code != ir.PnLt || !n.CondCode.Signed {
		t.Errorf("CondCode not threaded through: %+v", n)
	}
}

func TestSetccAddImm(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	cmp := setccCmp(a, block)

	// delta = trueVal - falseVal = 1, falseVal != 0: SETcc then ADD falseVal.
	n, ok := New().Setcc(newCtx(a), cmp, ir.PnLt, true, 6, 5)
	if !ok {
		t.Fatal("Setcc declined")
	}
	if n.Common.Mnemonic != "ia32_SetccAdd" {
		t.Errorf("Mnemonic = %q, want ia32_SetccAdd", n.Common.Mnemonic)
	}
	if !strings.Contains(n.Common.AsmText, "add%M $5, %D9") {
		t.Errorf("AsmText = %q, want an add%%M $5, %%D9 line", n.Common.AsmText)
	}
}

func TestSetccLeaScaled(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	cmp := setccCmp(a, block)

	for _, delta := range []int64{3, 5, 9} {
		n, ok := New().Setcc(newCtx(a), cmp, ir.PnLt, true, delta, 0)
		if !ok {
			t.Fatalf("Setcc declined for delta=%d", delta)
		}
		if n.Common.Mnemonic != "ia32_SetccLea" {
			t.Errorf("delta=%d: Mnemonic = %q, want ia32_SetccLea", delta, n.Common.Mnemonic)
		}
		wantLea := "lea%M 0(,%D9,"
		if !strings.Contains(n.Common.AsmText, wantLea) {
			t.Errorf("delta=%d: AsmText = %q, want to contain %q", delta, n.Common.AsmText, wantLea)
		}
	}
}

func TestSetccShlPowerOfTwo(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	cmp := setccCmp(a, block)

	// delta = 11 - 3 = 8 = 2^3, falseVal = 3 != 0: SETcc, SHL 3, ADD 3.
	n, ok := New().Setcc(newCtx(a), cmp, ir.PnLt, true, 11, 3)
	if !ok {
		t.Fatal("Setcc declined")
	}
	if n.Common.Mnemonic != "ia32_SetccShl" {
		t.Errorf("Mnemonic = %q, want ia32_SetccShl", n.Common.Mnemonic)
	}
	if !strings.Contains(n.Common.AsmText, "shl%M $3, %D9") {
		t.Errorf("AsmText = %q, missing shl%%M $3, %%D9", n.Common.AsmText)
	}
	if !strings.Contains(n.Common.AsmText, "add%M $3, %D9") {
		t.Errorf("AsmText = %q, missing trailing add%%M $3, %%D9", n.Common.AsmText)
	}
}

func TestSetccImulGenericFallback(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	cmp := setccCmp(a, block)

	// delta = 7 - 1 = 6: not 1, not {3,5,9}, not a power of two.
	n, ok := New().Setcc(newCtx(a), cmp, ir.PnLt, true, 7, 1)
	if !ok {
		t.Fatal("Setcc declined")
	}
	if n.Common.Mnemonic != "ia32_SetccImul" {
		t.Errorf("Mnemonic = %q, want ia32_SetccImul", n.Common.Mnemonic)
	}
	if !strings.Contains(n.Common.AsmText, "imul%M $6, %D9, %D9") {
		t.Errorf("AsmText = %q, missing imul%%M $6, %%D9, %%D9", n.Common.AsmText)
	}
	if !strings.Contains(n.Common.AsmText, "add%M $1, %D9") {
		t.Errorf("AsmText = %q, missing trailing add%%M $1, %%D9", n.Common.AsmText)
	}
}

// TestSetccNegativeDeltaNegatesCode: trueVal < falseVal swaps the pair and
// negates the pn-code so every synthesis case above only ever sees a
// positive delta.
func TestSetccNegativeDeltaNegatesCode(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	cmp := setccCmp(a, block)

	// trueVal=0, falseVal=5 -> delta=-5 -> negated to PnGe, delta=5 (LEA-x5).
	n, ok := New().Setcc(newCtx(a), cmp, ir.PnLt, true, 0, 5)
	if !ok {
		t.Fatal("Setcc declined")
	}
	if n.CondCode.Code != ir.PnGe {
		t.Errorf("Code = %v, want PnGe (PnLt negated)", n.CondCode.Code)
	}
	if n.Common.Mnemonic != "ia32_SetccLea" {
		t.Errorf("Mnemonic = %q, want ia32_SetccLea", n.Common.Mnemonic)
	}
}
