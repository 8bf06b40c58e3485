package xsd

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// Diagnostic is a rustc-style rendering of a BuildError, carrying enough
// source position information to print an underlined snippet.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Position Position `json:"position"`
	Tag      string   `json:"tag"`
	QName    string   `json:"qname,omitempty"`
	Hints    []string `json:"hints,omitempty"`
}

// Severity is a diagnostic's severity level.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Position is a source location within one schema document.
type Position struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int64  `json:"offset"`
}

// DiagnosticConverter turns BuildErrors accumulated on a CompiledSchema (or
// a single Schema, in lax/skip mode) into source-anchored Diagnostics.
type DiagnosticConverter struct {
	fileName string
	source   string
}

// NewDiagnosticConverter creates a converter that stamps fileName on every
// position. source is stored but not read by Convert; ErrorFormatter.Format
// takes the document text for its snippet as its own argument.
func NewDiagnosticConverter(fileName, source string) *DiagnosticConverter {
	return &DiagnosticConverter{fileName: fileName, source: source}
}

// Convert renders every BuildError as a Diagnostic, in the order given.
func (dc *DiagnosticConverter) Convert(errs []*BuildError) []Diagnostic {
	out := make([]Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, dc.convert(e))
	}
	return out
}

func (dc *DiagnosticConverter) convert(e *BuildError) Diagnostic {
	d := Diagnostic{
		Severity: SeverityError,
		Code:     string(e.Kind) + "/" + e.Code,
		Message:  e.Message,
		Position: dc.getPosition(e.Elem),
		QName:    e.QName.String(),
		Hints:    dc.generateHints(e),
	}
	if e.Elem != nil {
		d.Tag = string(e.Elem.LocalName())
	}
	return d
}

func (dc *DiagnosticConverter) getPosition(elem xmldom.Element) Position {
	if elem == nil {
		return Position{File: dc.fileName}
	}
	line, col, offset := elem.Position()
	return Position{File: dc.fileName, Line: line, Column: col, Offset: offset}
}

// generateHints offers a short, kind-specific suggestion for the more
// common error codes.
func (dc *DiagnosticConverter) generateHints(e *BuildError) []string {
	switch e.Kind {
	case ErrReference:
		if e.Code == "MissingComponent" {
			return []string{"check the qualified name and its namespace prefix binding",
				"make sure the defining schema is reachable via include/import"}
		}
		if e.Code == "WrongKind" {
			return []string{fmt.Sprintf("%s names a component of a different kind than expected", e.QName)}
		}
	case ErrRedefinition:
		if e.Code == "multiple-redefinition" {
			return []string{"only one schema in a closure may redefine a given component"}
		}
		if e.Code == "circular-redefinition" {
			return []string{"the redefine/override chain forms a cycle; break it by removing one link"}
		}
	case ErrFacet:
		return []string{"check the facet's value against its base type's lexical space"}
	case ErrSubstitution:
		return []string{"an element cannot (transitively) substitute for itself"}
	case ErrModel:
		return []string{"check compositor compatibility and occurrence bounds against the base group"}
	}
	return nil
}

// ErrorFormatter renders a Diagnostic with a rustc-style caret under the
// offending source line.
type ErrorFormatter struct {
	Color           bool
	ShowFullElement bool
}

// Format renders diag against source (the original XSD document text).
func (ef *ErrorFormatter) Format(diag Diagnostic, source string) string {
	var sb strings.Builder

	severity := string(diag.Severity)
	if ef.Color {
		switch diag.Severity {
		case SeverityError:
			severity = "\033[31;1merror\033[0m"
		case SeverityWarning:
			severity = "\033[33;1mwarning\033[0m"
		case SeverityInfo:
			severity = "\033[36;1minfo\033[0m"
		}
	}
	sb.WriteString(fmt.Sprintf("%s[%s]: %s\n", severity, diag.Code, diag.Message))
	sb.WriteString(fmt.Sprintf(" --> %s:%d:%d\n", diag.Position.File, diag.Position.Line, diag.Position.Column))

	if source != "" && diag.Position.Line > 0 {
		lines := strings.Split(source, "\n")
		if diag.Position.Line <= len(lines) {
			sb.WriteString(fmt.Sprintf("%4d | ", diag.Position.Line))
			sb.WriteString(lines[diag.Position.Line-1] + "\n")
			sb.WriteString("     | ")
			if diag.Position.Column > 0 {
				sb.WriteString(strings.Repeat(" ", diag.Position.Column-1))
				if ef.Color {
					sb.WriteString("\033[31;1m^\033[0m")
				} else {
					sb.WriteString("^")
				}
			}
			sb.WriteString("\n")
		}
	}

	if len(diag.Hints) > 0 {
		sb.WriteString("     |\n")
		for _, hint := range diag.Hints {
			sb.WriteString("     = help: " + hint + "\n")
		}
	}
	if diag.QName != "" {
		sb.WriteString("     = note: " + diag.QName + "\n")
	}

	return sb.String()
}
