/*
 * ssabc - Generic input IR: the language/machine-independent SSA graph
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

// Package ir holds the opaque-to-clients generic SSA input graph: the
// "in-memory SSA IR graph" of the external-interfaces contract. Front-end
// lowering, type checking, and tarval arithmetic are out of scope (spec
// §1); this package only needs to let the back-end walk and pattern-match
// an already-built graph.
package ir

// NodeId indexes a Node in a Graph's arena. Predecessor links are NodeIds,
// not owning pointers, so back-edges created by Phis are ordinary data.
type NodeId int

// Invalid is the sentinel "no node" id.
const Invalid NodeId = -1

// Opcode names a generic (machine-independent) operation.
type Opcode int

const (
	OpBad Opcode = iota
	OpStart
	OpEnd
	OpBlock
	OpJmp
	OpReturn
	OpConst
	OpSymConst
	OpFrameAddr
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpEor
	OpMul
	OpMulh
	OpDiv
	OpMod
	OpDivMod
	OpShl
	OpShr
	OpShrs
	OpRotl
	OpMinus
	OpNot
	OpConv
	OpCmp
	OpMux
	OpLoad
	OpStore
	OpCond
	OpPhi
	OpProj
	OpCall
	OpKeep
	OpCopyKeep
	OpUnknown
)

var opcodeNames = map[Opcode]string{
	OpBad: "Bad", OpStart: "Start", OpEnd: "End", OpBlock: "Block",
	OpJmp: "Jmp", OpReturn: "Return", OpConst: "Const", OpSymConst: "SymConst",
	OpFrameAddr: "FrameAddr", OpAdd: "Add", OpSub: "Sub", OpAnd: "And",
	OpOr: "Or", OpEor: "Eor", OpMul: "Mul", OpMulh: "Mulh", OpDiv: "Div",
	OpMod: "Mod", OpDivMod: "DivMod", OpShl: "Shl", OpShr: "Shr",
	OpShrs: "Shrs", OpRotl: "Rotl", OpMinus: "Minus", OpNot: "Not",
	OpConv: "Conv", OpCmp: "Cmp", OpMux: "Mux", OpLoad: "Load",
	OpStore: "Store", OpCond: "Cond", OpPhi: "Phi", OpProj: "Proj",
	OpCall: "Call", OpKeep: "Keep", OpCopyKeep: "CopyKeep", OpUnknown: "Unknown",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "Opcode(?)"
}

// Mode names the machine mode of a node's result (or OpBlock/OpStart's lack
// of one). ModeT marks a node with multiple outputs, selected by Proj;
// ModeX marks control flow; ModeM marks a memory dependency.
type Mode int

const (
	ModeNone Mode = iota
	ModeBu        // unsigned byte
	ModeBs        // signed byte
	ModeHu        // unsigned halfword
	ModeHs        // signed halfword
	ModeIu        // unsigned word (i32)
	ModeIs        // signed word (i32)
	ModeLu        // unsigned doubleword (i64)
	ModeLs        // signed doubleword (i64)
	ModeF         // single-precision float
	ModeD         // double-precision float
	ModeP         // pointer
	Modeb         // boolean (flags-derived)
	ModeM         // memory
	ModeX         // control flow
	ModeT         // tuple (multiple outputs via Proj)
)

// Size reports the mode's width in bytes, or 0 for modes with no storage
// width (ModeM, ModeX, ModeT, ModeNone, Modeb).
func (m Mode) Size() int {
	switch m {
	case ModeBu, ModeBs:
		return 1
	case ModeHu, ModeHs:
		return 2
	case ModeIu, ModeIs, ModeF, ModeP:
		return 4
	case ModeLu, ModeLs, ModeD:
		return 8
	default:
		return 0
	}
}

// Signed reports whether the mode is a signed integer mode.
func (m Mode) Signed() bool {
	switch m {
	case ModeBs, ModeHs, ModeIs, ModeLs:
		return true
	default:
		return false
	}
}

// Entity is a symbol with linkage: a function, global, frame slot, or
// string constant. Entities live for the module's lifetime.
type Entity struct {
	Name    string
	Kind    EntityKind
	Size    int  // size in bytes, for globals/frame slots.
	Align   int  // required alignment in bytes.
	Global  bool // false for a frame-local slot entity.
	Init    []InitEntry
	Section string // explicit section override, "" for the default per Kind.
}

// EntityKind distinguishes the four entity flavors named in the data model.
type EntityKind int

const (
	EntityFunction EntityKind = iota
	EntityGlobal
	EntityFrameSlot
	EntityString
)

// InitEntry is one byte-range initializer for a global Entity: either a
// constant value, a symbol address (tarval-like), or a bitfield fragment.
type InitEntry struct {
	Offset int
	Size   int // 1, 2, 4, or 8 bytes for a value entry.
	Value  uint64
	Sym    *Entity // non-nil for a relocated symbol-address entry.
	SymAdd int64   // addend applied to Sym's address.
	// Bitfield entries OR partial bytes together instead of overwriting.
	Bitfield  bool
	BitOffset int
	BitWidth  int
}

// Attr is the opcode-specific payload hanging off a Node; see the attribute
// block variants in package attr for the tagged-union members actually
// used.
type Attr interface{}

// Node is one vertex of the SSA graph.
type Node struct {
	Id    NodeId
	Op    Opcode
	Mode  Mode
	In    []NodeId
	Attr  Attr
	Block NodeId // owning block; Invalid for OpBlock/OpStart itself.
	Dbg   string // debug label, e.g. for diagnostics ("%+F" node tag).
}

// ConstAttr carries an integer constant's bit-exact value.
type ConstAttr struct{ Value int64 }

// SymConstAttr denotes an entity address, size, or alignment constant.
type SymConstAttr struct {
	Entity *Entity
	Kind   SymConstKind
}

// SymConstKind distinguishes the four things a SymConst can denote.
type SymConstKind int

const (
	SymConstAddr SymConstKind = iota
	SymConstSize
	SymConstAlign
	SymConstOffset
)

// CmpAttr records the relational code (firm's "pn-code") of a Cmp.
type CmpAttr struct{ Code PnCode }

// PnCode is a compact encoding of relational operators shared between Cmp
// and Cond, matching the glossary's "pn-code".
type PnCode int

const (
	PnFalse PnCode = iota
	PnEq
	PnLt
	PnLe
	PnGt
	PnGe
	PnNe
	PnTrue
)

// Negated returns the logical negation of a pn-code, used when the Setcc
// synthesis table swaps (t, f).
func (p PnCode) Negated() PnCode {
	switch p {
	case PnEq:
		return PnNe
	case PnNe:
		return PnEq
	case PnLt:
		return PnGe
	case PnGe:
		return PnLt
	case PnLe:
		return PnGt
	case PnGt:
		return PnLe
	case PnTrue:
		return PnFalse
	default:
		return PnTrue
	}
}

// CondAttr marks a Cond node as a switch over an integer selector with a
// dense case range [Min, Max], one Proj per case plus a default Proj.
type CondAttr struct {
	Min, Max int64
	IsSwitch bool
}

// ConvAttr carries the source mode a Conv narrows or widens from.
type ConvAttr struct{ FromMode Mode }

// FrameAddrAttr ties a FrameAddr node to its frame entity.
type FrameAddrAttr struct{ Entity *Entity }

// CallAttr records a direct call's target entity and argument modes.
type CallAttr struct {
	Entity *Entity
	ArgM   []Mode
}

// ProjAttr picks one output of a ModeT (tuple) predecessor; Num indexes
// which output, matching the glossary's "Proj" entry.
type ProjAttr struct{ Num int }

// Arena owns every Node of one graph. Predecessor links are indices into
// Nodes, matching the design note: "the arena owns all nodes; [any rename
// mapping] is scratch state."
type Arena struct {
	Nodes  []Node
	Blocks []NodeId // reachable blocks, insertion order.
	Start  NodeId
	End    NodeId
}

// NewArena creates an empty arena with Start/End not yet allocated.
func NewArena() *Arena {
	return &Arena{Start: Invalid, End: Invalid}
}

// NewNode appends a node to the arena and returns its id. Ownership of the
// node is the arena's; In are non-owning references by NodeId.
func (a *Arena) NewNode(op Opcode, mode Mode, block NodeId, in []NodeId, attr Attr) NodeId {
	id := NodeId(len(a.Nodes))
	a.Nodes = append(a.Nodes, Node{
		Id: id, Op: op, Mode: mode, Block: block,
		In: append([]NodeId(nil), in...), Attr: attr,
	})
	return id
}

// Node dereferences an id.
func (a *Arena) Node(id NodeId) *Node {
	return &a.Nodes[id]
}

// AddBlock registers a new reachable block and returns its id.
func (a *Arena) AddBlock(preds []NodeId) NodeId {
	id := a.NewNode(OpBlock, ModeNone, Invalid, preds, nil)
	a.Blocks = append(a.Blocks, id)
	return id
}

// BlockPreds returns the control predecessors (NodeIds of the X-mode nodes
// feeding this block) of block id.
func (a *Arena) BlockPreds(block NodeId) []NodeId {
	return a.Node(block).In
}

// NodesInBlock returns, in arena order, every node whose Block field is
// block (excluding the OpBlock node itself).
func (a *Arena) NodesInBlock(block NodeId) []NodeId {
	var out []NodeId
	for i := range a.Nodes {
		n := &a.Nodes[i]
		if n.Block == block && n.Op != OpBlock {
			out = append(out, n.Id)
		}
	}
	return out
}
