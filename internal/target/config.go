/*
 * ssabc - Target configuration file parser
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

package target

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Option is one option trailing a directive's main value: a name, an
// optional "=value" (EqualOpt) and any ", "-separated values after it, e.g.
// Name "popcnt" with Value ["bmi2"] from "CPU-FEATURE sse2 popcnt, bmi2".
type Option struct {
	Name     string
	EqualOpt string
	Value    []*string
}

// directiveName is the bare keyword leading a config line, e.g. "CPU-FEATURE".
type directiveName struct {
	name string
}

// firstValue is the single token following a directive name, before any
// comma-separated options.
type firstValue struct {
	value string
}

type configLine struct {
	line string
	pos  int
}

/* -cpu-features file format, a direct descendant of the teacher's device
 * config grammar with device addressing dropped (a compiler target has no
 * device bus):
 *
 * '#' indicates comment, rest of line is ignored.
 * <line> := <directive> <whitespace> <value> *(<whitespace> <options>) |
 *            <directive> <whitespace> <options>
 * <options> ::= <name> ['=' <quoteopt>] *(',' *(<whitespace>) <string>)
 * <quoteopt> ::= <string> | '"' *(<letter> | <whitespace>) '"'
 */

const (
	typeFlag   = 1 + iota // directive takes no value: "NO-RED-ZONE"
	typeValue              // directive takes one bare value: "STACK-ALIGN 16"
	typeValues             // directive takes a value plus comma options
)

type directiveDef struct {
	create func(value string, opts []Option) error
	ty     int
}

var directives = map[string]directiveDef{}

var lineNumber int

func getDirective(name string) int {
	d, ok := directives[name]
	if !ok {
		return 0
	}
	return d.ty
}

// RegisterFlag registers a value-less directive, e.g. "SOFT-FLOAT".
func RegisterFlag(name string, fn func(value string, opts []Option) error) {
	name = strings.ToUpper(name)
	directives[name] = directiveDef{create: fn, ty: typeFlag}
}

// RegisterValue registers a directive taking a single bare value, e.g.
// "STACK-ALIGN 16" or "TRACEFILE path/to/file".
func RegisterValue(name string, fn func(value string, opts []Option) error) {
	name = strings.ToUpper(name)
	directives[name] = directiveDef{create: fn, ty: typeValue}
}

// RegisterValues registers a directive taking a value plus a comma-separated
// option list, e.g. "CPU-FEATURE sse2 popcnt bmi2".
func RegisterValues(name string, fn func(value string, opts []Option) error) {
	name = strings.ToUpper(name)
	directives[name] = directiveDef{create: fn, ty: typeValues}
}

func createFlag(name string) error {
	name = strings.ToUpper(name)
	d, ok := directives[name]
	if !ok {
		return errors.New("unknown directive: " + name)
	}
	if d.ty != typeFlag {
		return errors.New("not a flag directive: " + name)
	}
	return d.create("", nil)
}

func createValue(name string, first *firstValue) error {
	name = strings.ToUpper(name)
	d, ok := directives[name]
	if !ok {
		return errors.New("unknown directive: " + name)
	}
	if d.ty != typeValue {
		return errors.New("not a single-value directive: " + name)
	}
	return d.create(first.value, nil)
}

func createValues(name string, first *firstValue, opts []Option) error {
	name = strings.ToUpper(name)
	d, ok := directives[name]
	if !ok {
		return errors.New("unknown directive: " + name)
	}
	if d.ty != typeValues {
		return errors.New("not a value+options directive: " + name)
	}
	return d.create(first.value, opts)
}

// LoadConfigFile reads and applies every directive line in name, in order.
func LoadConfigFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		line := configLine{}
		var rerr error
		line.line, rerr = reader.ReadString('\n')
		lineNumber++
		if len(line.line) == 0 && rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return rerr
		}
		if err := line.parseLine(); err != nil {
			return err
		}
	}
	return nil
}

func (line *configLine) parseLine() error {
	dir := line.parseDirective()
	if dir == nil {
		return nil
	}
	switch getDirective(dir.name) {
	case typeFlag:
		line.skipSpace()
		if !line.isEOL() {
			return fmt.Errorf("directive %s takes no value, line %d", dir.name, lineNumber)
		}
		return createFlag(dir.name)

	case typeValue:
		first := line.parseFirstValue()
		if first == nil {
			return fmt.Errorf("directive %s requires a value, line %d", dir.name, lineNumber)
		}
		return createValue(dir.name, first)

	case typeValues:
		first := line.parseFirstValue()
		if first == nil {
			return fmt.Errorf("directive %s requires a value, line %d", dir.name, lineNumber)
		}
		opts, err := line.parseOptions()
		if err != nil {
			return err
		}
		return createValues(dir.name, first, opts)

	case 0:
		return fmt.Errorf("no directive %s registered, line %d", dir.name, lineNumber)
	}
	return nil
}

func (line *configLine) skipSpace() {
	for line.pos < len(line.line) && unicode.IsSpace(rune(line.line[line.pos])) {
		line.pos++
	}
}

func (line *configLine) isEOL() bool {
	if line.pos >= len(line.line) {
		return true
	}
	return line.line[line.pos] == '#'
}

func (line *configLine) getNext(inQuote bool) byte {
	line.pos++
	if line.isEOL() {
		return 0
	}
	by := line.line[line.pos]
	if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || inQuote {
		return by
	}
	return 0
}

func (line *configLine) getPeek() byte {
	if (line.pos + 1) >= len(line.line) {
		return 0
	}
	return line.line[line.pos+1]
}

func (line *configLine) parseDirective() *directiveName {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}

	name := directiveName{}
	for {
		if line.isEOL() {
			break
		}
		by := line.line[line.pos]
		if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || by == '-' {
			name.name += string([]byte{by})
			line.pos++
			continue
		}
		break
	}
	name.name = strings.ToUpper(name.name)
	return &name
}

func (line *configLine) parseFirstValue() *firstValue {
	line.skipSpace()
	if line.isEOL() {
		return nil
	}

	value := ""
	for {
		if line.isEOL() {
			break
		}
		by := line.line[line.pos]
		if unicode.IsLetter(rune(by)) || unicode.IsNumber(rune(by)) || by == '_' || by == '.' || by == '/' || by == '-' {
			value += string([]byte{by})
			line.pos++
			continue
		}
		break
	}
	return &firstValue{value: value}
}

func (line *configLine) parseQuoteString() (string, bool) {
	inQuote := false
	value := ""

	if line.getPeek() == '"' {
		inQuote = true
		_ = line.getNext(true)
	}

	for {
		by := line.getNext(inQuote)
		if by == '"' && inQuote {
			by = line.getNext(inQuote)
			if by != '"' {
				return value, true
			}
		}

		space := unicode.IsSpace(rune(by))
		if !inQuote && (space || by == 0 || by == ',') {
			return value, true
		}

		value += string(by)
		if line.isEOL() {
			return value, !inQuote
		}
	}
}

func (line *configLine) getName() (string, error) {
	if line.isEOL() {
		return "", nil
	}

	by := line.line[line.pos]
	if !unicode.IsLetter(rune(by)) {
		if !line.isEOL() {
			return "", fmt.Errorf("invalid option at line %d [%d]", lineNumber, line.pos)
		}
		return "", nil
	}
	value := ""
	for {
		value += string([]byte{by})
		by = line.getNext(false)
		if by == 0 {
			break
		}
	}
	return value, nil
}

func (line *configLine) parseOption() (*Option, error) {
	line.skipSpace()

	value, err := line.getName()
	if value == "" {
		return nil, err
	}

	option := Option{Name: value}

	if line.isEOL() {
		return &option, nil
	}

	if line.line[line.pos] == '=' {
		v, ok := line.parseQuoteString()
		if !ok {
			return nil, fmt.Errorf("invalid quoted string at line %d [%d]", lineNumber, line.pos)
		}
		option.EqualOpt = v
	}

	line.skipSpace()

	for !line.isEOL() && line.line[line.pos] == ',' {
		line.pos++
		line.skipSpace()
		v, err := line.getName()
		if err != nil {
			return nil, err
		}
		if v != "" {
			option.Value = append(option.Value, &v)
		}
		line.skipSpace()
	}

	return &option, nil
}

func (line *configLine) parseOptions() ([]Option, error) {
	var opts []Option
	for {
		opt, err := line.parseOption()
		if err != nil {
			return nil, err
		}
		if opt == nil {
			break
		}
		opts = append(opts, *opt)
	}
	return opts, nil
}
