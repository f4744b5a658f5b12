/*
 * ssabc - GNU assembler (AT&T syntax) text emitter
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

// Package emit renders a scheduled, allocated, peephole-cleaned graph as
// GNU assembler text, porting libFirm's begnuas.c section/symbol
// bracketing and ia32_emitter.c's %-format instruction text substitution.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
)

// Writer accumulates one compilation unit's GAS text.
type Writer struct {
	w       *bufio.Writer
	obj     target.ObjFormat
	section string
}

// New wraps w for emission under the object-file conventions of t.
func New(w io.Writer, t *target.Features) *Writer {
	return &Writer{w: bufio.NewWriter(w), obj: t.ObjFormat}
}

// Flush pushes any buffered text to the underlying writer.
func (e *Writer) Flush() error { return e.w.Flush() }

// sectionDirective maps the data model's logical sections to their GAS names;
// Mach-O additionally wants a ",regular,pure_instructions" subsections tag
// on .text and a "__TEXT," segment prefix, begnuas.c's object_fmt switch.
func (e *Writer) sectionDirective(kind string) string {
	switch e.obj {
	case MachOFmt():
		switch kind {
		case "text":
			return ".section __TEXT,__text,regular,pure_instructions"
		case "data":
			return ".section __DATA,__data"
		case "rodata":
			return ".section __TEXT,__const"
		case "bss":
			return ".section __DATA,__bss"
		default:
			return ".section __DATA," + kind
		}
	default:
		switch kind {
		case "text":
			return ".text"
		case "data":
			return ".data"
		case "rodata":
			return ".section .rodata"
		case "bss":
			return ".bss"
		case "tbss":
			return ".section .tbss,\"awT\",@nobits"
		case "ctors":
			return ".section .ctors,\"aw\""
		case "dtors":
			return ".section .dtors,\"aw\""
		default:
			return ".section ." + kind
		}
	}
}

// MachOFmt exists so sectionDirective's switch can compare against the
// target package's MachO constant without an import cycle concern; it's a
// thin accessor, not a second source of truth.
func MachOFmt() target.ObjFormat { return target.MachO }

// Section switches the active section, emitting the directive only when
// it actually changes (GAS tolerates repeats, but real assemblers in this
// corpus keep output minimal).
func (e *Writer) Section(kind string) {
	if e.section == kind {
		return
	}
	e.section = kind
	fmt.Fprintln(e.w, e.sectionDirective(kind))
}

// FunctionStart emits the label and (on ELF) the .type/.size bracketing
// begnuas.c wraps every function definition in.
func (e *Writer) FunctionStart(name string) {
	e.Section("text")
	if e.obj == target.ELF {
		fmt.Fprintf(e.w, ".globl %s\n.type %s, @function\n", name, name)
	} else {
		fmt.Fprintf(e.w, ".globl %s\n", name)
	}
	fmt.Fprintf(e.w, "%s:\n", name)
}

// FunctionEnd closes out the ELF .size directive; a no-op on formats that
// don't track symbol sizes.
func (e *Writer) FunctionEnd(name, endLabel string) {
	if e.obj == target.ELF {
		fmt.Fprintf(e.w, "%s:\n.size %s, %s - %s\n", endLabel, name, endLabel, name)
	}
}

// Label emits a bare local label.
func (e *Writer) Label(name string) {
	fmt.Fprintf(e.w, "%s:\n", name)
}

// Instruction substitutes the %-placeholders of an attr.Node's AsmText
// against its resolved operands and writes the resulting line, tab-indented
// per GAS convention.
//
// Placeholders: %S<n>/%D<n> source/dest register n; %AM the folded address
// mode; %AS<n> address-mode-or-register source n; %L a jump-target label;
// %M a mode suffix (b/w/l/q); %P the condition-code mnemonic; %E the entity
// name; %I an immediate; %c a bare literal '%'.
func (e *Writer) Instruction(c *ctx.Ctx, id ir.NodeId, regName func(slot int) string, label func(ir.NodeId) string) {
	a, ok := c.Arena.Node(id).Attr.(*attr.Node)
	if !ok || a.Common.AsmText == "" {
		return
	}
	text := a.Common.AsmText
	var out strings.Builder
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '%' || i+1 >= len(text) {
			out.WriteByte(ch)
			continue
		}
		i++
		switch text[i] {
		case 'c':
			out.WriteByte('%')
		case 'M':
			out.WriteString(modeSuffix(a.Common.LoadStoreMode))
		case 'P':
			if a.Tag == attr.TagCondCode {
				out.WriteString(conditionMnemonic(a.CondCode.Code, a.CondCode.Signed))
			}
		case 'E':
			out.WriteString(entityOperand(a))
		case 'I':
			if a.Tag == attr.TagImmediate {
				out.WriteString("$" + strconv.FormatInt(a.Imm.Value, 10))
			}
		case 'L':
			out.WriteString(label(id))
		case 'A':
			// %AM or %ASn
			if i+1 < len(text) && text[i+1] == 'M' {
				i++
				out.WriteString(addrModeOperand(a))
			} else if i+1 < len(text) && text[i+1] == 'S' {
				i += 2
				n := 0
				for i < len(text) && text[i] >= '0' && text[i] <= '9' {
					n = n*10 + int(text[i]-'0')
					i++
				}
				i--
				if a.Common.AddrMode != nil {
					out.WriteString(addrModeOperand(a))
				} else {
					out.WriteString(regName(n))
				}
			}
		case 'S', 'D':
			slotDigit := i + 1
			n := 0
			for slotDigit < len(text) && text[slotDigit] >= '0' && text[slotDigit] <= '9' {
				n = n*10 + int(text[slotDigit]-'0')
				slotDigit++
			}
			i = slotDigit - 1
			out.WriteString(regName(n))
		default:
			out.WriteByte('%')
			out.WriteByte(text[i])
		}
	}
	fmt.Fprintf(e.w, "\t%s\n", out.String())
}

func modeSuffix(m ir.Mode) string {
	switch m {
	case ir.ModeBu, ir.ModeBs:
		return "b"
	case ir.ModeHu, ir.ModeHs:
		return "w"
	case ir.ModeIu, ir.ModeIs, ir.ModeF, ir.ModeP:
		return "l"
	case ir.ModeLu, ir.ModeLs, ir.ModeD:
		return "q"
	default:
		return ""
	}
}

func conditionMnemonic(code ir.PnCode, signed bool) string {
	switch code {
	case ir.PnEq:
		return "e"
	case ir.PnNe:
		return "ne"
	case ir.PnLt:
		if signed {
			return "l"
		}
		return "b"
	case ir.PnLe:
		if signed {
			return "le"
		}
		return "be"
	case ir.PnGt:
		if signed {
			return "g"
		}
		return "a"
	case ir.PnGe:
		if signed {
			return "ge"
		}
		return "ae"
	default:
		return "?"
	}
}

func entityOperand(a *attr.Node) string {
	switch a.Tag {
	case attr.TagCall:
		if a.Call != nil && a.Call.Entity != nil {
			return a.Call.Entity.Name
		}
	case attr.TagImmediate:
		if a.Imm != nil && a.Imm.Symbol != nil {
			return a.Imm.Symbol.Name
		}
	}
	if a.Common.FrameEntity != nil {
		return a.Common.FrameEntity.Name
	}
	return ""
}

func addrModeOperand(a *attr.Node) string {
	m := a.Common.AddrMode
	if m == nil {
		return ""
	}
	var sb strings.Builder
	if m.Symbol != nil {
		sb.WriteString(m.Symbol.Name)
	}
	if m.Offset != 0 || (m.Symbol == nil && m.Base == ir.Invalid && m.Index == ir.Invalid) {
		fmt.Fprintf(&sb, "%d", m.Offset)
	}
	if m.Base != ir.Invalid || m.Index != ir.Invalid {
		sb.WriteByte('(')
		if m.Base != ir.Invalid {
			fmt.Fprintf(&sb, "%%r%d", int(m.Base))
		}
		if m.Index != ir.Invalid {
			fmt.Fprintf(&sb, ",%%r%d,%d", int(m.Index), 1<<uint(m.Scale))
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
