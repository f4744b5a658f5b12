/*
 * ssabc - Hot-path pass tracing to a file
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

// Package tracelog is the hot-path sibling of package logger: cheap,
// mask-gated trace lines written straight to a file without going through
// slog's attribute machinery, for the list scheduler and peephole driver's
// per-node chatter where a logger call per node would dominate runtime.
package tracelog

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rcornwell/ssabc/internal/target"
)

var logFile *os.File

// Tracef emits a pass-scoped trace line, e.g. from package schedule or
// peephole, gated by (mask & level) so disabled trace classes cost a single
// integer AND.
func Tracef(pass string, mask int, level int, format string, a ...interface{}) {
	if logFile == nil || (mask&level) == 0 {
		return
	}
	fmt.Fprintf(logFile, pass+": "+format+"\n", a...)
}

// NodeTracef emits a trace line scoped to a single IR node id, for
// per-node decisions (AM folding, register requirement resolution).
func NodeTracef(nodeID int, mask int, level int, format string, a ...interface{}) {
	if logFile == nil || (mask&level) == 0 {
		return
	}
	fmt.Fprintf(logFile, "node "+strconv.Itoa(nodeID)+": "+format+"\n", a...)
}

// BlockTracef emits a trace line scoped to a block id, for block-scheduler
// and dominance-frontier decisions.
func BlockTracef(blockID int, mask int, level int, format string, a ...interface{}) {
	if logFile == nil || (mask&level) == 0 {
		return
	}
	fmt.Fprintf(logFile, "block "+strconv.Itoa(blockID)+": "+format+"\n", a...)
}

func init() {
	target.RegisterValue("TRACEFILE", create)
}

func create(fileName string, _ []target.Option) error {
	if logFile != nil {
		return fmt.Errorf("can't have more than one trace file, previous: %s", logFile.Name())
	}

	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("unable to create trace file: %s", fileName)
	}

	logFile = file
	return nil
}
