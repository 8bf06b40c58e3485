package xsd

import (
	"fmt"

	"github.com/agentflare-ai/go-xmldom"
)

// Variant distinguishes the three SimpleType shapes XSD allows. AtomicRestriction
// is represented as VariantAtomic with a non-nil BaseType and a non-empty
// Facets set; a bare Atomic built-in has VariantAtomic, nil BaseType.
type Variant int

const (
	VariantAtomic Variant = iota
	VariantList
	VariantUnion
)

// SimpleType is a built-in primitive, a restriction of an existing atomic
// type, a list over an item type, or a union over member types.
type SimpleType struct {
	Ref

	Variant   Variant
	Primitive PrimitiveKind
	Builtin   bool
	lexical   lexicalValidator

	BaseType *SimpleType // non-nil for a restriction
	Facets   *FacetSet

	ItemType    *SimpleType   // non-nil for VariantList
	MemberTypes []*SimpleType // non-empty for VariantUnion
}

func newEmptySimpleType(schema *Schema, elem xmldom.Element, parent Component) Component {
	st := &SimpleType{Ref: newRef(KindSimpleType, schema, elem, parent)}
	if name := string(elem.GetAttribute("name")); name != "" {
		ns := ""
		if schema != nil {
			ns = schema.TargetNamespace
		}
		st.setName(QName{Namespace: ns, Local: name})
	}
	return st
}

// buildSimpleType fills a pre-allocated SimpleType from its <simpleType>
// node: exactly one of restriction/list/union.
func buildSimpleType(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	st := instance.(*SimpleType)
	st.state = StateBuilding

	var shapeChild xmldom.Element
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "restriction", "list", "union":
			shapeChild = child
		}
	}
	if shapeChild == nil {
		parseErrorOrPanic(st, NewBuildError(ErrStructural, "MissingShape",
			"simpleType must have exactly one of restriction, list, or union").WithQName(st.Name()))
		st.state = StateBuilt
		return nil
	}

	switch string(shapeChild.LocalName()) {
	case "restriction":
		buildSimpleRestriction(shapeChild, schema, st)
	case "list":
		buildSimpleList(shapeChild, schema, st)
	case "union":
		buildSimpleUnion(shapeChild, schema, st)
	}

	st.state = StateBuilt
	return nil
}

func buildSimpleRestriction(elem xmldom.Element, schema *Schema, st *SimpleType) {
	st.Variant = VariantAtomic
	st.Facets = newFacetSet()

	baseAttr := string(elem.GetAttribute("base"))
	var base *SimpleType
	if baseAttr != "" {
		base = resolveSimpleTypeRef(schema, ParseQName(schema.namespaces, baseAttr, schema.TargetNamespace))
	} else if inline := firstChildNamed(elem, "simpleType"); inline != nil {
		base = buildInlineSimpleType(inline, schema, st)
	}
	if base == nil {
		parseErrorOrPanic(st, NewBuildError(ErrReference, "MissingBase",
			"restriction has no resolvable base type").WithQName(st.Name()))
		return
	}
	st.BaseType = base
	st.Primitive = base.Primitive

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		name := string(child.LocalName())
		if name == "simpleType" || name == "annotation" {
			continue
		}
		value := string(child.GetAttribute("value"))
		fixed := string(child.GetAttribute("fixed")) == "true"
		f := ParseFacet(name, value, fixed)
		if f == nil {
			parseErrorOrPanic(st, NewBuildError(ErrFacet, "InvalidFacet",
				fmt.Sprintf("facet <%s> has an invalid value %q", name, value)).WithQName(st.Name()))
			continue
		}
		if err := st.Facets.Add(f); err != nil {
			if be, ok := err.(*BuildError); ok {
				parseErrorOrPanic(st, be.WithQName(st.Name()))
			}
		}
	}
	st.Facets.Merge(base.Facets)
}

func buildSimpleList(elem xmldom.Element, schema *Schema, st *SimpleType) {
	st.Variant = VariantList
	st.Primitive = PrimitiveString
	st.Facets = newFacetSet()

	if itemTypeAttr := string(elem.GetAttribute("itemType")); itemTypeAttr != "" {
		st.ItemType = resolveSimpleTypeRef(schema, ParseQName(schema.namespaces, itemTypeAttr, schema.TargetNamespace))
	} else if inline := firstChildNamed(elem, "simpleType"); inline != nil {
		st.ItemType = buildInlineSimpleType(inline, schema, st)
	}
	if st.ItemType == nil {
		parseErrorOrPanic(st, NewBuildError(ErrReference, "MissingItemType",
			"list has no resolvable item type").WithQName(st.Name()))
	}
}

func buildSimpleUnion(elem xmldom.Element, schema *Schema, st *SimpleType) {
	st.Variant = VariantUnion
	st.Primitive = PrimitiveString
	st.Facets = newFacetSet()

	if memberTypes := string(elem.GetAttribute("memberTypes")); memberTypes != "" {
		for _, name := range splitWhitespace(memberTypes) {
			if mt := resolveSimpleTypeRef(schema, ParseQName(schema.namespaces, name, schema.TargetNamespace)); mt != nil {
				st.MemberTypes = append(st.MemberTypes, mt)
			}
		}
	}
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace || string(child.LocalName()) != "simpleType" {
			continue
		}
		if mt := buildInlineSimpleType(child, schema, st); mt != nil {
			st.MemberTypes = append(st.MemberTypes, mt)
		}
	}
	if len(st.MemberTypes) == 0 {
		parseErrorOrPanic(st, NewBuildError(ErrReference, "EmptyUnion",
			"union must have at least one member type").WithQName(st.Name()))
	}
}

// buildInlineSimpleType builds an anonymous SimpleType directly, without
// registering it in the GlobalMap (it has no QName a redefinition chain
// could ever target).
func buildInlineSimpleType(elem xmldom.Element, schema *Schema, parent Component) *SimpleType {
	st := &SimpleType{Ref: newRef(KindSimpleType, schema, elem, parent)}
	if err := buildSimpleType(elem, schema, parent, st); err != nil {
		return nil
	}
	return st
}

func resolveSimpleTypeRef(schema *Schema, qname QName) *SimpleType {
	if schema == nil {
		return nil
	}
	if qname.Namespace == XSDNamespace {
		if bt, ok := schema.globals.builtins[qname.Local]; ok {
			return bt
		}
	}
	c, err := schema.globals.globalMap.lookup(StoreTypes, qname)
	if err != nil {
		return nil
	}
	st, _ := c.(*SimpleType)
	return st
}

// IsDerivedFrom reports whether st is the same as, or transitively
// restricts, ancestor.
func (st *SimpleType) IsDerivedFrom(ancestor *SimpleType) bool {
	for t := st; t != nil; t = t.BaseType {
		if t == ancestor || t.Name() == ancestor.Name() {
			return true
		}
	}
	return false
}

// Validate checks value's lexical form against st: facets for an atomic
// restriction, item-wise for a list, first-match for a union.
func (st *SimpleType) Validate(value string) error {
	ws := "preserve"
	if wsFacet, ok := st.Facets.Get(FacetWhiteSpace); ok {
		ws = wsFacet.(*WhiteSpaceFacet).Value
	}
	normalized := NormalizeWhiteSpace(value, ws)

	switch st.Variant {
	case VariantList:
		for _, tok := range splitWhitespace(normalized) {
			if err := st.ItemType.Validate(tok); err != nil {
				return err
			}
		}
		return ValidateFacets(normalized, st.Facets, st)
	case VariantUnion:
		var lastErr error
		for _, mt := range st.MemberTypes {
			if err := mt.Validate(normalized); err == nil {
				return ValidateFacets(normalized, st.Facets, st)
			} else {
				lastErr = err
			}
		}
		if lastErr == nil {
			lastErr = NewBuildError(ErrFacet, "NoMemberMatched", "no union member type accepted the value")
		}
		return lastErr
	default:
		if st.lexical != nil {
			if err := st.lexical(normalized); err != nil {
				return err
			}
		} else if st.BaseType != nil {
			if err := st.BaseType.Validate(normalized); err != nil {
				return err
			}
		}
		return ValidateFacets(normalized, st.Facets, st)
	}
}

func splitWhitespace(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

func firstChildNamed(elem xmldom.Element, local string) xmldom.Element {
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		if string(child.LocalName()) == local {
			return child
		}
	}
	return nil
}
