// Package errorsx formats AquaScript diagnostics with source context,
// line/column information and caret indicators, the same way
// cmd/aquac and cmd/aquavm report both compile-time and run-time
// failures. It is modeled on the teacher toolchain's error package
// (CompilerError -> Diagnostic, since every pipeline stage here -
// lexer, parser, compiler - and the VM's runtime errors all funnel
// through the same type, not just the compiler), but the single-line
// and context-window renderers share one code path instead of two,
// and a fourth, untyped adapter picks up errors that cross a stage
// boundary without ever being wrapped in one of the typed error
// slices below.
package errorsx

import (
	"fmt"
	"strings"

	"github.com/aquascript/aqua/internal/compiler"
	"github.com/aquascript/aqua/internal/lexer"
	"github.com/aquascript/aqua/internal/parser"
	"github.com/aquascript/aqua/pkg/token"
)

// Diagnostic is a single reportable problem with its source position.
type Diagnostic struct {
	Message string
	Source  string
	File    string
	Pos     token.Position
}

// New builds a Diagnostic directly.
func New(pos token.Position, message, source, file string) *Diagnostic {
	return &Diagnostic{Pos: pos, Message: message, Source: source, File: file}
}

func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders a one-line header, the offending source line, a
// caret under the column, and the message.
func (d *Diagnostic) Format(color bool) string { return d.render(0, color) }

// FormatWithContext is Format plus contextLines of surrounding source
// on either side, dimmed when color is set.
func (d *Diagnostic) FormatWithContext(contextLines int, color bool) string {
	return d.render(contextLines, color)
}

// render is Format and FormatWithContext's shared implementation:
// contextLines == 0 degenerates to a single highlighted line (what
// the teacher's Format and FormatWithContext used to duplicate as two
// independent header/gutter/caret code paths).
func (d *Diagnostic) render(contextLines int, color bool) string {
	lines, start := d.window(contextLines)
	if len(lines) == 0 {
		return d.header() + d.message(color)
	}

	var sb strings.Builder
	sb.WriteString(d.header())
	for i, line := range lines {
		cur := start + i
		d.writeLine(&sb, cur, line, cur == d.Pos.Line, contextLines > 0, color)
	}
	if contextLines > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(d.message(color))
	return sb.String()
}

func (d *Diagnostic) header() string {
	if d.File != "" {
		return fmt.Sprintf("Error in %s:%d:%d\n", d.File, d.Pos.Line, d.Pos.Column)
	}
	return fmt.Sprintf("Error at line %d:%d\n", d.Pos.Line, d.Pos.Column)
}

func (d *Diagnostic) message(color bool) string {
	if !color {
		return d.Message
	}
	return "\033[1m" + d.Message + "\033[0m"
}

// writeLine appends one gutter-prefixed source line, a caret line
// underneath when it is the reported line, and dims non-reported
// context lines when dimOthers is set (a no-op in the 0-context case,
// since there are no "other" lines to dim).
func (d *Diagnostic) writeLine(sb *strings.Builder, lineNum int, text string, isTarget, dimOthers, color bool) {
	gutter := fmt.Sprintf("%4d | ", lineNum)
	switch {
	case isTarget && dimOthers && color:
		sb.WriteString("\033[1m" + gutter + text + "\033[0m\n")
	case isTarget:
		sb.WriteString(gutter + text + "\n")
	case dimOthers && color:
		sb.WriteString("\033[2m" + gutter + text + "\033[0m\n")
	default:
		sb.WriteString(gutter + text + "\n")
	}
	if !isTarget {
		return
	}
	sb.WriteString(strings.Repeat(" ", len(gutter)+d.Pos.Column-1))
	if color {
		sb.WriteString("\033[1;31m^\033[0m\n")
	} else {
		sb.WriteString("^\n")
	}
}

// window returns the source lines render needs (just the reported
// line when contextLines == 0) and the 1-based line number the slice
// starts at.
func (d *Diagnostic) window(contextLines int) ([]string, int) {
	if d.Source == "" {
		return nil, 0
	}
	lines := strings.Split(d.Source, "\n")
	if d.Pos.Line < 1 || d.Pos.Line > len(lines) {
		return nil, 0
	}
	if contextLines == 0 {
		return lines[d.Pos.Line-1 : d.Pos.Line], d.Pos.Line
	}
	start := d.Pos.Line - contextLines
	if start < 1 {
		start = 1
	}
	end := d.Pos.Line + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start-1 : end], start
}

// FormatAll formats a batch of diagnostics, numbering them when there
// is more than one.
func FormatAll(diags []*Diagnostic, color bool) string {
	return formatBatch(diags, 0, color)
}

// FormatAllWithContext is FormatAll using FormatWithContext per entry.
func FormatAllWithContext(diags []*Diagnostic, contextLines int, color bool) string {
	return formatBatch(diags, contextLines, color)
}

func formatBatch(diags []*Diagnostic, contextLines int, color bool) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].render(contextLines, color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Compilation failed with %d error(s):\n\n", len(diags))
	for i, d := range diags {
		fmt.Fprintf(&sb, "[Error %d of %d]\n", i+1, len(diags))
		sb.WriteString(d.render(contextLines, color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// FromLexErrors, FromParseErrors and FromCodegenErrors adapt each
// pipeline stage's own position-carrying error type to Diagnostic so a
// single formatter covers the whole front end. All three stages share
// the same Pos/Message shape, so the conversion itself lives once in
// convertPositioned.
func FromLexErrors(errs []*lexer.Error, source, file string) []*Diagnostic {
	return convertPositioned(errs, func(e *lexer.Error) (token.Position, string) { return e.Pos, e.Message }, source, file)
}

func FromParseErrors(errs []*parser.Error, source, file string) []*Diagnostic {
	return convertPositioned(errs, func(e *parser.Error) (token.Position, string) { return e.Pos, e.Message }, source, file)
}

func FromCodegenErrors(errs []*compiler.Error, source, file string) []*Diagnostic {
	return convertPositioned(errs, func(e *compiler.Error) (token.Position, string) { return e.Pos, e.Message }, source, file)
}

func convertPositioned[E any](errs []E, split func(E) (token.Position, string), source, file string) []*Diagnostic {
	out := make([]*Diagnostic, len(errs))
	for i, e := range errs {
		pos, msg := split(e)
		out[i] = New(pos, msg, source, file)
	}
	return out
}

// FromUntyped is the typed adapters' fallback: it covers errors that
// cross a stage boundary without ever being collected into one of the
// typed slices above - chiefly a file-based module import
// (cmd/aquavm's fileResolver) failing inside vm.Load/vm.Run, where all
// the caller has is a plain error. It extracts a trailing
// "at LINE:COL" suffix if the message carries one, the same
// convention vm.RuntimeError's own message formatting could use, and
// otherwise reports at position zero rather than dropping the error.
func FromUntyped(errs []error, source, file string) []*Diagnostic {
	out := make([]*Diagnostic, len(errs))
	for i, err := range errs {
		pos, msg := splitTrailingPosition(err.Error())
		out[i] = New(pos, msg, source, file)
	}
	return out
}

func splitTrailingPosition(msg string) (token.Position, string) {
	idx := strings.LastIndex(msg, " at ")
	if idx == -1 {
		return token.Position{}, msg
	}
	var line, col int
	if _, err := fmt.Sscanf(msg[idx+4:], "%d:%d", &line, &col); err != nil {
		return token.Position{}, msg
	}
	return token.Position{Line: line, Column: col}, msg[:idx]
}

// FormatRuntimeTrace renders a VM runtime error per spec.md §7: the
// message followed by a newest-frame-first call trace, reusing this
// package's bold/reset color convention instead of inventing a second
// one for run-time output.
func FormatRuntimeTrace(message string, trace []string, color bool) string {
	var sb strings.Builder
	if color {
		sb.WriteString("\033[1;31m")
	}
	sb.WriteString("Runtime error: ")
	sb.WriteString(message)
	if color {
		sb.WriteString("\033[0m")
	}
	sb.WriteString("\n")
	for _, line := range trace {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
