/*
 * ssabc - ia32 opcode to emit-format-string table
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

package ia32

import "github.com/rcornwell/ssabc/internal/attr"

// format is the (mnemonic, GAS format-string) table spec §4.7 calls for:
// every ia32_* mnemonic a selector function can produce maps to the AT&T-
// syntax template emit.Writer.Instruction substitutes operands into. Entries
// whose destination is a freshly-assigned register (never the same physical
// register as an input) address it as %D9: the emitted node is the original
// generic node, and emit.Instruction resolves %D<n> by slot into that node's
// In list exactly like %S<n> does, so %D0 on, say, a Mul (whose OutReqs is
// not ReqSameAs) would alias the first operand's register instead of Mul's
// own. %D9 is conventionally past any arity this IR produces.
var format = map[string]string{
	"ia32_Const":  "mov%M %I, %D0",
	"ia32_Add":    "add%M %AS1, %D0",
	"ia32_Sub":    "sub%M %AS1, %D0",
	"ia32_And":    "and%M %AS1, %D0",
	"ia32_Or":     "or%M %AS1, %D0",
	"ia32_Eor":    "xor%M %AS1, %D0",
	"ia32_Lea":    "lea%M %AM, %D0",
	"ia32_Mul":    "imul%M %S1, %D9",
	"ia32_Mulh":   "imul%M %S1",
	"ia32_Div":    "cltd\n\tidiv%M %S1",
	"ia32_Mod":    "cltd\n\tidiv%M %S1",
	"ia32_DivMod": "cltd\n\tidiv%M %S1",
	"ia32_Shl":    "shl%M %S1, %D0",
	"ia32_Shr":    "shr%M %S1, %D0",
	"ia32_Shrs":   "sar%M %S1, %D0",
	"ia32_Rotl":   "rol%M %S1, %D0",
	"ia32_Load":   "mov%M %AM, %D9",
	"ia32_Store":  "mov%M %S0, %AM",
	"ia32_Conv":   "movz%M %S0, %D9",
	"ia32_Jcc":    "j%P %L",
	"ia32_Switch": "jmp *%AM",
	"ia32_Ret":    "ret",
}

// finish fills n.Common.AsmText from the format table keyed by
// n.Common.Mnemonic, unless the caller already set a more specific text
// (the Setcc synthesis cases below compute text dynamic per comparison, so
// they populate AsmText themselves and finish leaves it alone).
func finish(n *attr.Node) *attr.Node {
	if n.Common.AsmText == "" {
		n.Common.AsmText = format[n.Common.Mnemonic]
	}
	return n
}
