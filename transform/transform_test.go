package transform

import (
	"testing"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
	"github.com/rcornwell/ssabc/transform/template"
)

func TestRunTagsEveryNode(t *testing.T) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	c1 := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 1})
	c2 := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 2})
	add := a.NewNode(ir.OpAdd, ir.ModeIu, block, []ir.NodeId{c1, c2}, nil)

	cc := ctx.New(a, target.Default(target.Template), nil)
	if err := Run(cc, template.New()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, id := range []ir.NodeId{c1, c2, add} {
		n := a.Node(id)
		if n.Attr == nil {
			t.Errorf("node %d was not given a backend attribute", id)
			continue
		}
		if _, ok := n.Attr.(*attr.Node); !ok {
			t.Errorf("node %d attribute has wrong type %T", id, n.Attr)
		}
	}
}
