/*
 * ssabc - Keep-node completion pass
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package keepwalk ensures every ModeT (tuple) node's outputs are pinned:
// a used output has exactly one Proj selecting it, and any output with no
// user still gets a Proj plus a Keep so scheduling and register allocation
// never drop it as dead before the instruction that defines it (DivMod's
// unused remainder, a Call's unused return value) is actually scheduled.
package keepwalk

import "github.com/rcornwell/ssabc/internal/ir"

// Run scans every node in the graph and returns the Keep nodes it had to
// synthesize, one per unused output, appending them to the owning block.
// Duplicated outputs are collapsed onto one Proj and get no Keep.
func Run(a *ir.Arena) []ir.NodeId {
	var added []ir.NodeId
	tuples := tupleNodes(a)
	for _, t := range tuples {
		projs := projsOf(a, t)
		for num, ids := range projs {
			switch len(ids) {
			case 0:
				p := a.NewNode(ir.OpProj, ir.ModeM, a.Node(t).Block, []ir.NodeId{t}, &ir.ProjAttr{Num: num})
				k := a.NewNode(ir.OpKeep, ir.ModeNone, a.Node(t).Block, []ir.NodeId{p}, nil)
				added = append(added, k)
			case 1:
				if len(usersOf(a, ids[0])) == 0 {
					k := a.NewNode(ir.OpKeep, ir.ModeNone, a.Node(t).Block, []ir.NodeId{ids[0]}, nil)
					added = append(added, k)
				}
			default:
				// Duplicate Projs for the same output number: keep the
				// first, retarget the rest's users to it so exactly one
				// Proj per output survives into scheduling.
				canonical := ids[0]
				for _, dup := range ids[1:] {
					retarget(a, dup, canonical)
				}
			}
		}
	}
	return added
}

// tupleNodes returns every node whose Mode is ModeT.
func tupleNodes(a *ir.Arena) []ir.NodeId {
	var out []ir.NodeId
	for i := range a.Nodes {
		n := &a.Nodes[i]
		if n.Mode == ir.ModeT {
			out = append(out, n.Id)
		}
	}
	return out
}

// declaredOutputs gives the output count of tuple opcodes whose arity is
// fixed by the opcode; any other tuple is taken to have the outputs its
// existing Projs name, or a single output when it has none.
var declaredOutputs = map[ir.Opcode]int{ir.OpDivMod: 2}

// projsOf groups t's existing Proj users by projection number. A tuple
// with N declared outputs may have zero or more than one Proj recorded
// per number before this pass normalizes it.
func projsOf(a *ir.Arena, t ir.NodeId) map[int][]ir.NodeId {
	out := map[int][]ir.NodeId{}
	for i := range a.Nodes {
		n := &a.Nodes[i]
		if n.Op != ir.OpProj || len(n.In) == 0 || n.In[0] != t {
			continue
		}
		pa, ok := n.Attr.(*ir.ProjAttr)
		num := 0
		if ok {
			num = pa.Num
		}
		out[num] = append(out[num], n.Id)
	}
	for num := 0; num < declaredOutputs[a.Node(t).Op]; num++ {
		if _, ok := out[num]; !ok {
			out[num] = nil
		}
	}
	if len(out) == 0 {
		out[0] = nil
	}
	return out
}

// usersOf returns every node with id among its operands.
func usersOf(a *ir.Arena, id ir.NodeId) []ir.NodeId {
	var out []ir.NodeId
	for i := range a.Nodes {
		n := &a.Nodes[i]
		for _, in := range n.In {
			if in == id {
				out = append(out, n.Id)
				break
			}
		}
	}
	return out
}

// retarget rewrites every user of from to reference to instead, folding a
// duplicate Proj into its canonical sibling.
func retarget(a *ir.Arena, from, to ir.NodeId) {
	for i := range a.Nodes {
		n := &a.Nodes[i]
		for j, in := range n.In {
			if in == from {
				n.In[j] = to
			}
		}
	}
}
