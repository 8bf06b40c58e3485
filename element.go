package xsd

import "github.com/agentflare-ai/go-xmldom"

// Element is an element declaration, global or local, by-reference or
// inline. A by-reference occurrence shares the referenced global
// Element's Ref identity but carries its own occurrence range, mirrored
// via elementRefParticle.
type Element struct {
	Ref

	Type            Component // *SimpleType or *ComplexType
	TypeName        QName     // unresolved until the type is looked up
	Nillable        bool
	Abstract        bool
	Default         string
	Fixed           string
	SubstitutionGrp QName

	IdentityConstraints []*IdentityConstraint

	minOcc int
	maxOcc int
}

func (e *Element) MinOccurs() int { return e.minOcc }
func (e *Element) MaxOccurs() int { return e.maxOcc }

// elementRefParticle wraps a global Element referenced from a content
// model with that reference site's occurrence range.
type elementRefParticle struct {
	*Element
	minOcc int
	maxOcc int
}

func (e *elementRefParticle) MinOccurs() int { return e.minOcc }
func (e *elementRefParticle) MaxOccurs() int { return e.maxOcc }

func newEmptyElement(schema *Schema, elem xmldom.Element, parent Component) Component {
	e := &Element{Ref: newRef(KindElement, schema, elem, parent), minOcc: 1, maxOcc: 1}
	if name := string(elem.GetAttribute("name")); name != "" {
		ns := ""
		if schema != nil {
			ns = schema.TargetNamespace
		}
		e.setName(QName{Namespace: ns, Local: name})
	}
	return e
}

// buildElement fills a pre-allocated global Element declaration.
func buildElement(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	e := instance.(*Element)
	e.state = StateBuilding
	e.minOcc = parseOccurs(elem, "minOccurs", 1)
	e.maxOcc = parseOccurs(elem, "maxOccurs", 1)
	checkOccurs(e, e.minOcc, e.maxOcc)
	buildElementCommon(elem, schema, e)
	e.state = StateBuilt
	return nil
}

func buildElementCommon(elem xmldom.Element, schema *Schema, e *Element) {
	e.Nillable = string(elem.GetAttribute("nillable")) == "true"
	e.Abstract = string(elem.GetAttribute("abstract")) == "true"
	e.Default = string(elem.GetAttribute("default"))
	e.Fixed = string(elem.GetAttribute("fixed"))

	if sg := string(elem.GetAttribute("substitutionGroup")); sg != "" {
		e.SubstitutionGrp = ParseQName(schema.namespaces, sg, schema.TargetNamespace)
	}

	if typeAttr := string(elem.GetAttribute("type")); typeAttr != "" {
		e.TypeName = ParseQName(schema.namespaces, typeAttr, schema.TargetNamespace)
		e.Type = resolveTypeRef(schema, e.TypeName)
		if e.Type == nil {
			parseErrorOrPanic(e, NewBuildError(ErrReference, "MissingType",
				"element type "+e.TypeName.String()+" does not resolve").WithQName(e.TypeName))
		}
	} else {
		children := elem.Children()
		for i := uint(0); i < children.Length(); i++ {
			child := children.Item(i)
			if child == nil || string(child.NamespaceURI()) != XSDNamespace {
				continue
			}
			switch string(child.LocalName()) {
			case "simpleType":
				e.Type = buildInlineSimpleType(child, schema, e)
			case "complexType":
				e.Type = buildInlineComplexType(child, schema, e)
			}
		}
	}
	if e.Type == nil {
		// Implicit anyType default, absent an explicit type; also the
		// fallback for an unresolved type once lax/skip mode continues.
		e.Type = resolveSimpleTypeRef(schema, QName{Namespace: XSDNamespace, Local: "anyType"})
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "key":
			e.IdentityConstraints = append(e.IdentityConstraints, buildInlineIdentityConstraint(child, schema, e, ICKey))
		case "keyref":
			e.IdentityConstraints = append(e.IdentityConstraints, buildInlineIdentityConstraint(child, schema, e, ICKeyRef))
		case "unique":
			e.IdentityConstraints = append(e.IdentityConstraints, buildInlineIdentityConstraint(child, schema, e, ICUnique))
		}
	}
}

// buildElementParticle builds the element particle appearing directly in a
// content model: either a reference (resolved via the GlobalMap, cycle-
// tolerant so a recursive content model does not deadlock) or an inline
// local declaration (never registered globally).
func buildElementParticle(elem xmldom.Element, schema *Schema, parent Component) Particle {
	if ref := string(elem.GetAttribute("ref")); ref != "" {
		qname := ParseQName(schema.namespaces, ref, schema.TargetNamespace)
		c, err := schema.globals.globalMap.lookup(StoreElements, qname)
		if err != nil {
			parseErrorOrPanic(parent, err.(*BuildError).WithQName(qname))
			return nil
		}
		global, _ := c.(*Element)
		if global == nil {
			return nil
		}
		refMin, refMax := parseOccurs(elem, "minOccurs", 1), parseOccurs(elem, "maxOccurs", 1)
		checkOccurs(parent, refMin, refMax)
		return &elementRefParticle{
			Element: global,
			minOcc:  refMin,
			maxOcc:  refMax,
		}
	}

	name := string(elem.GetAttribute("name"))
	if name == "" {
		return nil
	}
	e := &Element{Ref: newRef(KindElement, schema, elem, parent), minOcc: 1, maxOcc: 1}
	e.setName(QName{Namespace: schema.TargetNamespace, Local: name})
	e.minOcc = parseOccurs(elem, "minOccurs", 1)
	e.maxOcc = parseOccurs(elem, "maxOccurs", 1)
	checkOccurs(e, e.minOcc, e.maxOcc)
	buildElementCommon(elem, schema, e)
	return e
}

func resolveTypeRef(schema *Schema, qname QName) Component {
	if qname.Namespace == XSDNamespace {
		if bt, ok := schema.globals.builtins[qname.Local]; ok {
			return bt
		}
	}
	if c, err := schema.globals.globalMap.lookup(StoreTypes, qname); err == nil {
		return c
	}
	return nil
}
