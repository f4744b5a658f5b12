package backend

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
	"github.com/rcornwell/ssabc/schedule"
	"github.com/rcornwell/ssabc/transform/template"
)

func identityAllocator(c *ctx.Ctx, order map[ir.NodeId][]ir.NodeId) (map[ir.NodeId]string, error) {
	out := map[ir.NodeId]string{}
	for _, seq := range order {
		for i, id := range seq {
			out[id] = template.GPR.Registers[i%len(template.GPR.Registers)].Name
		}
	}
	return out, nil
}

func TestCompileRunsFullPipelineWithoutError(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block

	one := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 1})
	two := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 2})
	sum := a.NewNode(ir.OpAdd, ir.ModeIu, block, []ir.NodeId{one, two}, nil)
	a.NewNode(ir.OpReturn, ir.ModeX, block, []ir.NodeId{sum}, nil)

	c := ctx.New(a, target.Default(target.Template), nil)
	p := Pipeline{
		Selector: template.New(),
		Schedule: schedule.Trivial{},
		Allocate: identityAllocator,
		Peephole: nil,
	}

	var buf bytes.Buffer
	if err := Compile(c, p, &buf, "add_const"); err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "add_const:") {
		t.Errorf("expected function label in output, got:\n%s", out)
	}
}

func TestFatalError(t *testing.T) {
	f := &Fatal{Pass: "regalloc", Reason: "out of registers", Node: 3}
	got := f.Error()
	if !strings.Contains(got, "regalloc: out of registers at") {
		t.Errorf("Fatal.Error() = %q, missing expected prefix", got)
	}
}
