package xsd

import "github.com/agentflare-ai/go-xmldom"

// Kind tags every variant of the XSD component model.
type Kind int

const (
	KindNotation Kind = iota
	KindSimpleType
	KindComplexType
	KindAttribute
	KindAttributeGroup
	KindModelGroup
	KindElement
	KindWildcard
	KindIdentityConstraint
	KindAssertion
	KindFacet
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindNotation:
		return "notation"
	case KindSimpleType:
		return "simpleType"
	case KindComplexType:
		return "complexType"
	case KindAttribute:
		return "attribute"
	case KindAttributeGroup:
		return "attributeGroup"
	case KindModelGroup:
		return "group"
	case KindElement:
		return "element"
	case KindWildcard:
		return "wildcard"
	case KindIdentityConstraint:
		return "identityConstraint"
	case KindAssertion:
		return "assertion"
	case KindFacet:
		return "facet"
	case KindAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// State is a component's position in the Unresolved -> Building -> Built
// -> Checked lifecycle.
type State int

const (
	StateUnresolved State = iota
	StateBuilding
	StateBuilt
	StateChecked
)

// Component is the common capability every XSD component variant
// implements.
type Component interface {
	Kind() Kind
	Name() QName
	HasName() bool
	Parent() Component
	Schema() *Schema
	Elem() xmldom.Element
	IsGlobal() bool
	State() State
	Errors() []*BuildError
	AttachError(err *BuildError)
}

// Ref is the shared embeddable record backing every Component variant.
type Ref struct {
	kind     Kind
	name     QName
	named    bool
	parent   Component
	schema   *Schema
	elem     xmldom.Element
	state    State
	errs     []*BuildError
	redefine Component // pre-redefinition snapshot, for diagnostics
}

func newRef(kind Kind, schema *Schema, elem xmldom.Element, parent Component) Ref {
	return Ref{kind: kind, schema: schema, elem: elem, parent: parent, state: StateUnresolved}
}

func (r *Ref) Kind() Kind               { return r.kind }
func (r *Ref) Name() QName              { return r.name }
func (r *Ref) HasName() bool            { return r.named }
func (r *Ref) Parent() Component        { return r.parent }
func (r *Ref) Schema() *Schema          { return r.schema }
func (r *Ref) Elem() xmldom.Element     { return r.elem }
func (r *Ref) IsGlobal() bool           { return r.parent == nil }
func (r *Ref) State() State             { return r.state }
func (r *Ref) Errors() []*BuildError    { return r.errs }

func (r *Ref) setName(q QName) {
	r.name = q
	r.named = true
}

// AttachError records err on the component. In strict mode the caller
// (the factory or GlobalMap.lookup) is expected to abort instead of
// calling this; in lax mode this is the sole propagation channel, and in
// skip mode parseErrorOrPanic does not call it at all.
func (r *Ref) AttachError(err *BuildError) {
	if err.Elem == nil {
		err.Elem = r.elem
	}
	if err.Schema == "" && r.schema != nil {
		err.Schema = r.schema.Location
	}
	r.errs = append(r.errs, err)
	if r.schema != nil {
		r.schema.attachError(err)
	}
}

// parseErrorOrPanic is the single place every factory routes a build
// problem through, honoring the schema's validation mode exactly as
// xsdbase.py's parse_error does: strict aborts (via panic/recover at the
// Globals.Build boundary), lax attaches the error and continues, skip
// discards it and continues.
func parseErrorOrPanic(c Component, err *BuildError) {
	schema := c.Schema()
	mode := ModeStrict
	if schema != nil {
		mode = schema.globals.mode
	}
	if err.Elem == nil {
		err.Elem = c.Elem()
	}
	if err.Schema == "" && schema != nil {
		err.Schema = schema.Location
	}
	switch mode {
	case ModeSkip:
		return
	case ModeLax:
		c.AttachError(err)
	default: // strict
		panic(buildAbort{err})
	}
}

// buildAbort is the sentinel panic value strict mode uses to unwind out
// of arbitrarily deep factory recursion back to Globals.Build, which
// recovers it and turns it back into a returned error.
type buildAbort struct{ err *BuildError }

// setRedefine stashes snapshot as the pre-redefinition state (Ref.redefine),
// promoted onto every concrete component type that embeds Ref by value.
func (r *Ref) setRedefine(c Component) { r.redefine = c }

// Redefine returns the component's pre-redefinition snapshot, or nil if it
// was never redefined.
func (r *Ref) Redefine() Component { return r.redefine }

// shallowCopyComponent makes a field-wise copy of a concrete component
// value, used by GlobalMap.applyRedefinitions to snapshot the
// pre-redefinition state before re-invoking the owning factory in place.
func shallowCopyComponent(c Component) Component {
	switch v := c.(type) {
	case *Notation:
		cp := *v
		return &cp
	case *SimpleType:
		cp := *v
		return &cp
	case *ComplexType:
		cp := *v
		return &cp
	case *Attribute:
		cp := *v
		return &cp
	case *AttributeGroup:
		cp := *v
		return &cp
	case *ModelGroup:
		cp := *v
		return &cp
	case *Element:
		cp := *v
		return &cp
	case *Wildcard:
		cp := *v
		return &cp
	case *IdentityConstraint:
		cp := *v
		return &cp
	case *Assertion:
		cp := *v
		return &cp
	default:
		return c
	}
}

func setRedefineSnapshot(instance, snapshot Component) {
	if r, ok := instance.(interface{ setRedefine(Component) }); ok {
		r.setRedefine(snapshot)
	}
}
