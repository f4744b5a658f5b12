/*
 * ssabc - Command-line driver
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

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/rcornwell/ssabc/backend"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/logger"
	"github.com/rcornwell/ssabc/internal/regs"
	"github.com/rcornwell/ssabc/internal/target"
	"github.com/rcornwell/ssabc/peephole"
	"github.com/rcornwell/ssabc/schedule"
	"github.com/rcornwell/ssabc/transform"
	"github.com/rcornwell/ssabc/transform/amd64"
	"github.com/rcornwell/ssabc/transform/arm"
	"github.com/rcornwell/ssabc/transform/ia32"
	"github.com/rcornwell/ssabc/transform/template"
)

var Logger *slog.Logger

func main() {
	optTarget := getopt.StringLong("target", 't', "ia32", "Target architecture: ia32, amd64, arm, template")
	optGasMode := getopt.StringLong("mgasmode", 0, "elf", "Assembler dialect: elf, mingw, yasm, macho")
	optFPU := getopt.StringLong("mfpu", 0, "softfloat", "ARM FPU variant")
	optStackAlign := getopt.IntLong("mstackalign", 0, 0, "Stack alignment override, 0 keeps the target default")
	optMarkSpill := getopt.BoolLong("fmark-spill-reload", 0, "Annotate spill/reload instructions in emitted text")
	optCPUFeatures := getopt.StringLong("cpu-features", 0, "", "CPU-feature config file")
	optOut := getopt.StringLong("o", 'o', "", "Output file, stdout if empty")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optVerbose := getopt.BoolLong("v", 'v', "Mirror log output to stderr")
	optRepl := getopt.BoolLong("repl", 0, "Interactive scenario prompt instead of batch compile")
	optScenario := getopt.StringLong("scenario", 's', "add", "Built-in scenario to compile in batch mode")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var logWriter io.Writer = io.Discard
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "can't create log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		logWriter = f
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	verbose := *optVerbose
	Logger = slog.New(logger.NewHandler(logWriter, &slog.HandlerOptions{Level: programLevel}, &verbose))
	slog.SetDefault(Logger)

	feat, err := buildFeatures(*optTarget, *optGasMode, *optFPU, *optStackAlign, *optMarkSpill, *optCPUFeatures)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	p, err := pipelineFor(feat.Arch)
	if err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}

	if *optRepl {
		runRepl(feat, p)
		return
	}

	build, ok := scenarios[*optScenario]
	if !ok {
		Logger.Error("unknown scenario " + *optScenario + "; " + describeScenarios())
		os.Exit(1)
	}

	out := os.Stdout
	if *optOut != "" {
		f, err := os.Create(*optOut)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	arena, funcName := build()
	c := ctx.New(arena, feat, Logger)
	if err := backend.Compile(c, p, out, funcName); err != nil {
		Logger.Error(err.Error())
		os.Exit(1)
	}
}

// buildFeatures turns the getopt flags into a target.Features, applying
// a -cpu-features file last so its directives can override the flag
// defaults the same way the teacher's config directives layer over
// command-line state.
func buildFeatures(archName, gasMode, fpu string, stackAlign int, markSpill bool, cpuFile string) (*target.Features, error) {
	arch, err := target.ParseArch(archName)
	if err != nil {
		return nil, err
	}
	obj, err := target.ParseObjFormat(gasMode)
	if err != nil {
		return nil, err
	}
	f := target.Default(arch)
	f.ObjFormat = obj
	f.MarkSpillReload = markSpill
	if stackAlign != 0 {
		f.StackAlign = stackAlign
	}
	if arch == target.ARM {
		fpuMode, err := target.ParseFPU(fpu)
		if err != nil {
			return nil, err
		}
		f.FPU = fpuMode
	}
	if cpuFile != "" {
		if err := f.LoadFile(cpuFile); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// pipelineFor wires the per-architecture Selector, its register class
// (for the stand-in allocator) and its peephole rule set into a
// backend.Pipeline; only ia32 has a registered rewrite set so far.
func pipelineFor(arch target.Arch) (backend.Pipeline, error) {
	var sel transform.Selector
	var gpr *regs.Class
	var rules []peephole.Rule

	switch arch {
	case target.IA32:
		sel, gpr, rules = ia32.New(), ia32.GPR, peephole.Ia32Rules
	case target.AMD64:
		sel, gpr = amd64.New(), amd64.GPR
	case target.ARM:
		sel, gpr = arm.New(), arm.GPR
	case target.Template:
		sel, gpr = template.New(), template.GPR
	default:
		return backend.Pipeline{}, fmt.Errorf("unsupported target %v", arch)
	}

	return backend.Pipeline{
		Selector: sel,
		Schedule: schedule.Trivial{},
		Allocate: roundRobinAllocator(gpr),
		Peephole: rules,
	}, nil
}

// runRepl prompts for a scenario name and prints its compiled GAS text,
// the same liner-driven read loop the teacher's console reader runs,
// swapping a command parser for a scenario lookup.
func runRepl(feat *target.Features, p backend.Pipeline) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		var out []string
		for _, name := range scenarioNames() {
			if len(partial) == 0 || (len(name) >= len(partial) && name[:len(partial)] == partial) {
				out = append(out, name)
			}
		}
		return out
	})

	fmt.Println(describeScenarios())
	for {
		input, err := line.Prompt("ssabc> ")
		if err == nil {
			line.AppendHistory(input)
			runOneScenario(feat, p, input)
			continue
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}

func runOneScenario(feat *target.Features, p backend.Pipeline, name string) {
	build, ok := scenarios[name]
	if !ok {
		fmt.Println("unknown scenario " + name + "; " + describeScenarios())
		return
	}
	arena, funcName := build()
	c := ctx.New(arena, feat, Logger)
	if err := backend.Compile(c, p, os.Stdout, funcName); err != nil {
		fmt.Println("error: " + err.Error())
	}
}
