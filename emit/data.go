/*
 * ssabc - Global initializer emission
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

package emit

import (
	"fmt"
	"strings"

	"github.com/rcornwell/ssabc/internal/ir"
)

// Global stamps one global Entity's initializer into a byte map (so
// overlapping bitfield entries OR together correctly, per begnuas.c's
// create_initializer_data) and emits it as a sequence of .byte/.long/.quad
// and relocation directives.
func (e *Writer) Global(ent *ir.Entity) {
	section := "data"
	if ent.Section != "" {
		section = ent.Section
	} else if len(ent.Init) == 0 {
		section = "bss"
	}
	e.Section(section)

	if ent.Align > 1 {
		fmt.Fprintf(e.w, ".align %d\n", ent.Align)
	}
	fmt.Fprintf(e.w, ".globl %s\n%s:\n", ent.Name, ent.Name)

	if len(ent.Init) == 0 {
		fmt.Fprintf(e.w, "\t.zero %d\n", ent.Size)
		return
	}

	bytes := make([]byte, ent.Size)
	var relocs []string
	for _, init := range ent.Init {
		if init.Sym != nil {
			relocs = append(relocs, fmt.Sprintf("\t.long %s+%d\n", init.Sym.Name, init.SymAdd))
			continue
		}
		stampValue(bytes, init)
	}

	e.emitByteRuns(bytes)
	for _, r := range relocs {
		e.w.WriteString(r)
	}
}

// stampValue ORs init's bytes into dst at init.Offset, honoring bitfield
// sub-byte fragments (init.Bitfield) by shifting and masking rather than
// overwriting the whole byte, since two bitfield entries may share a byte.
func stampValue(dst []byte, init ir.InitEntry) {
	if init.Bitfield {
		byteOff := init.Offset + init.BitOffset/8
		bitShift := uint(init.BitOffset % 8)
		mask := uint64(1)<<uint(init.BitWidth) - 1
		v := (init.Value & mask) << bitShift
		nbytes := (init.BitWidth + int(bitShift) + 7) / 8
		for i := 0; i < nbytes && byteOff+i < len(dst); i++ {
			dst[byteOff+i] |= byte(v >> uint(8*i))
		}
		return
	}
	for i := 0; i < init.Size && init.Offset+i < len(dst); i++ {
		dst[init.Offset+i] = byte(init.Value >> uint(8*i))
	}
}

// emitByteRuns writes dst as a minimal run of .byte directives; a more
// sophisticated emitter would prefer .long/.quad for aligned runs of
// zero-relocation bytes, but byte-exact .byte output is always correct and
// keeps this function simple.
func (e *Writer) emitByteRuns(dst []byte) {
	const perLine = 12
	for i := 0; i < len(dst); i += perLine {
		end := i + perLine
		if end > len(dst) {
			end = len(dst)
		}
		parts := make([]string, end-i)
		for j := range parts {
			parts[j] = fmt.Sprintf("0x%02x", dst[i+j])
		}
		fmt.Fprintf(e.w, "\t.byte %s\n", strings.Join(parts, ", "))
	}
}

// String emits a string-constant Entity using .string (NUL-terminated) and
// escapes characters GAS treats specially, per begnuas.c's emit string
// handling.
func (e *Writer) String(ent *ir.Entity, value string) {
	e.Section("rodata")
	fmt.Fprintf(e.w, "%s:\n\t.string \"%s\"\n", ent.Name, EscapeString(value))
}

// EscapeString backslash-escapes the characters GAS's quoted-string syntax
// requires escaped: backslash, double quote, and the common control codes.
func EscapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
