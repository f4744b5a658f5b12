package emit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
)

func TestEscapeString(t *testing.T) {
	got := EscapeString("line1\n\"quoted\"\t\\end")
	want := `line1\n\"quoted\"\t\\end`
	if got != want {
		t.Errorf("EscapeString = %q, want %q", got, want)
	}
}

func TestGlobalZeroInitGoesToBSS(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, target.Default(target.IA32))
	w.Global(&ir.Entity{Name: "g_counter", Size: 4, Align: 4})
	w.Flush()

	out := buf.String()
	if !strings.Contains(out, ".bss") {
		t.Errorf("zero-init global should land in .bss, got:\n%s", out)
	}
	if !strings.Contains(out, ".zero 4") {
		t.Errorf("expected a .zero 4 directive, got:\n%s", out)
	}
}

func TestInstructionSubstitution(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block

	id := a.NewNode(ir.OpAdd, ir.ModeIu, block, nil, nil)
	a.Node(id).Attr = attr.NewCommon(attr.Common{
		Mnemonic:      "ia32_Add",
		AsmText:       "add%M %S1, %D0",
		LoadStoreMode: ir.ModeIu,
	})

	c := ctx.New(a, target.Default(target.IA32), nil)
	var buf bytes.Buffer
	w := New(&buf, target.Default(target.IA32))
	regName := func(slot int) string {
		if slot == 0 {
			return "%eax"
		}
		return "%ebx"
	}
	w.Instruction(c, id, regName, func(ir.NodeId) string { return "" })
	w.Flush()

	out := buf.String()
	if !strings.Contains(out, "addl %ebx, %eax") {
		t.Errorf("got %q, want substitution to produce addl %%ebx, %%eax", out)
	}
}
