package xsd

import (
	"fmt"

	"github.com/agentflare-ai/go-xmldom"
)

// ErrorKind classifies a build error by the kind of rule it violates.
type ErrorKind string

const (
	ErrStructural    ErrorKind = "structural"
	ErrReference     ErrorKind = "reference"
	ErrDerivation    ErrorKind = "derivation"
	ErrModel         ErrorKind = "model"
	ErrRedefinition  ErrorKind = "redefinition"
	ErrSubstitution  ErrorKind = "substitution"
	ErrFacet         ErrorKind = "facet"
	ErrResourceFault ErrorKind = "resource"
)

// BuildError is a single compilation-time error, attached to the
// component that raised it (and, in lax mode, also to its owning schema).
type BuildError struct {
	Kind      ErrorKind
	Code      string // short machine code, e.g. "MissingComponent", "DuplicateFacet"
	Message   string
	QName     QName  // the QName involved, if any
	Schema    string // owning schema's location/URL, for diagnostics
	Elem      xmldom.Element // source node the error was raised against, for diagnostics
	Wrapped   error
}

func (e *BuildError) Error() string {
	if e.QName.IsZero() {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", e.Kind, e.Code, e.Message, e.QName)
}

func (e *BuildError) Unwrap() error { return e.Wrapped }

// NewBuildError constructs a BuildError.
func NewBuildError(kind ErrorKind, code, message string) *BuildError {
	return &BuildError{Kind: kind, Code: code, Message: message}
}

// WithQName returns a copy of e annotated with qname, for fluent use at
// the call site (e.g. `parseErrorOrPanic(c, NewBuildError(...).WithQName(q))`).
func (e *BuildError) WithQName(q QName) *BuildError {
	c := *e
	c.QName = q
	return &c
}

// ValidationMode is the tri-valued error-propagation policy threaded
// through the Globals coordinator and every factory.
type ValidationMode string

const (
	ModeStrict ValidationMode = "strict"
	ModeLax    ValidationMode = "lax"
	ModeSkip   ValidationMode = "skip"
)

// FetchError is returned by a ResourceFetcher when a location cannot be
// retrieved or parsed.
type FetchError struct {
	Location string
	BaseURL  string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q (base %q): %v", e.Location, e.BaseURL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
