/*
 * ssabc - Target selection and CPU-feature configuration
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

// Package target holds the per-run target selection (ia32/amd64/arm/
// TEMPLATE), its object-file format, FPU mode, stack alignment, and the
// CPU-feature set loaded from a -cpu-features file. Every other package
// reaches the target through a *Features value threaded explicitly rather
// than a package-level global.
package target

import (
	"fmt"
	"strconv"
	"strings"
)

// Arch names one of the four backends spec §2 requires a transform.*
// package for.
type Arch int

const (
	IA32 Arch = iota
	AMD64
	ARM
	Template
)

func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "ia32":
		return IA32, nil
	case "amd64":
		return AMD64, nil
	case "arm":
		return ARM, nil
	case "template":
		return Template, nil
	default:
		return 0, fmt.Errorf("unknown target: %s", s)
	}
}

func (a Arch) String() string {
	switch a {
	case IA32:
		return "ia32"
	case AMD64:
		return "amd64"
	case ARM:
		return "arm"
	case Template:
		return "TEMPLATE"
	default:
		return "Arch(?)"
	}
}

// ObjFormat names the object-file / assembler dialect the GAS emitter
// must bracket sections and symbols for.
type ObjFormat int

const (
	ELF ObjFormat = iota
	MinGW
	Yasm
	MachO
)

func ParseObjFormat(s string) (ObjFormat, error) {
	switch strings.ToLower(s) {
	case "elf":
		return ELF, nil
	case "mingw":
		return MinGW, nil
	case "yasm":
		return Yasm, nil
	case "macho":
		return MachO, nil
	default:
		return 0, fmt.Errorf("unknown -mgasmode: %s", s)
	}
}

func (f ObjFormat) String() string {
	switch f {
	case ELF:
		return "elf"
	case MinGW:
		return "mingw"
	case Yasm:
		return "yasm"
	case MachO:
		return "macho"
	default:
		return "ObjFormat(?)"
	}
}

// FPU names the ARM floating-point unit variant, mirrored from the
// -mfpu flag named in spec §6.
type FPU int

const (
	SoftFloat FPU = iota
	FPE
	FPA
	VFP1XD
	VFP1
	VFP2
)

func ParseFPU(s string) (FPU, error) {
	switch strings.ToLower(s) {
	case "softfloat":
		return SoftFloat, nil
	case "fpe":
		return FPE, nil
	case "fpa":
		return FPA, nil
	case "vfp1xd":
		return VFP1XD, nil
	case "vfp1":
		return VFP1, nil
	case "vfp2":
		return VFP2, nil
	default:
		return 0, fmt.Errorf("unknown -mfpu: %s", s)
	}
}

// Features is the full configuration of one compilation target: which
// architecture, which object format it assembles for, and the tunables
// that change code generation (FPU, stack alignment, spill marking, named
// CPU features such as "sse2" or "thumb2").
type Features struct {
	Arch            Arch
	ObjFormat       ObjFormat
	FPU             FPU
	StackAlign      int
	MarkSpillReload bool
	CPU             map[string]bool
}

// Default returns the baseline Features for arch before any -cpu-features
// file or flags are applied.
func Default(arch Arch) *Features {
	f := &Features{
		Arch:       arch,
		ObjFormat:  ELF,
		StackAlign: 4,
		CPU:        map[string]bool{},
	}
	switch arch {
	case AMD64:
		f.StackAlign = 16
	case ARM:
		f.FPU = SoftFloat
	}
	return f
}

// Has reports whether a named CPU feature (e.g. "sse2", "bmi2", "thumb2")
// is enabled.
func (f *Features) Has(name string) bool {
	return f.CPU[strings.ToLower(name)]
}

// LoadFile parses a -cpu-features config file and applies its directives
// to f. The directive grammar (CPU-FEATURE, STACK-ALIGN, SOFT-FLOAT,
// MARK-SPILL-RELOAD) is registered against the shared target directive
// table on every call and stays registered afterwards, the same pattern the
// teacher uses for its device config directives.
func (f *Features) LoadFile(path string) error {
	RegisterValues("CPU-FEATURE", func(value string, opts []Option) error {
		f.CPU[strings.ToLower(value)] = true
		for _, o := range opts {
			f.CPU[strings.ToLower(o.Name)] = true
		}
		return nil
	})
	RegisterValue("STACK-ALIGN", func(value string, _ []Option) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STACK-ALIGN value %q: %w", value, err)
		}
		f.StackAlign = n
		return nil
	})
	RegisterFlag("SOFT-FLOAT", func(_ string, _ []Option) error {
		f.FPU = SoftFloat
		return nil
	})
	RegisterFlag("MARK-SPILL-RELOAD", func(_ string, _ []Option) error {
		f.MarkSpillReload = true
		return nil
	})

	return LoadConfigFile(path)
}
