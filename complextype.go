package xsd

import "github.com/agentflare-ai/go-xmldom"

// ContentKind classifies a ComplexType's content model.
type ContentKind int

const (
	EmptyContent ContentKind = iota
	SimpleContentKind
	ElementOnlyContent
	MixedContent
)

// DerivationKind is how a ComplexType relates to its base, when it has one.
type DerivationKind int

const (
	NoDerivation DerivationKind = iota
	DerivationExtension
	DerivationRestriction
)

// ComplexType is an element's structural type: a content model plus an
// attribute uses set.
type ComplexType struct {
	Ref

	Content    ContentKind
	Derivation DerivationKind
	BaseName   QName
	Base       Component // *ComplexType or *SimpleType; nil with no derivation or an unresolved base

	Mixed    bool
	Abstract bool

	SimpleTypeContent *SimpleType // effective type for SimpleContentKind
	Particle          Particle    // root model group for ElementOnly/Mixed content

	Attributes     []*Attribute
	AttributeGroup []QName
	AnyAttribute   *Wildcard
	Assertions     []*Assertion
}

func newEmptyComplexType(schema *Schema, elem xmldom.Element, parent Component) Component {
	ct := &ComplexType{Ref: newRef(KindComplexType, schema, elem, parent)}
	if name := string(elem.GetAttribute("name")); name != "" {
		ct.setName(QName{Namespace: schema.TargetNamespace, Local: name})
	}
	return ct
}

func buildComplexType(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	ct := instance.(*ComplexType)
	ct.state = StateBuilding
	ct.Mixed = string(elem.GetAttribute("mixed")) == "true"
	ct.Abstract = string(elem.GetAttribute("abstract")) == "true"

	var simpleContentChild, complexContentChild, directModelGroup xmldom.Element
	var directAttrs []xmldom.Element
	var directAttrGroups []xmldom.Element
	var directAnyAttr xmldom.Element
	var directAssertions []xmldom.Element

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "simpleContent":
			simpleContentChild = child
		case "complexContent":
			complexContentChild = child
		case "sequence", "choice", "all", "group":
			directModelGroup = child
		case "attribute":
			directAttrs = append(directAttrs, child)
		case "attributeGroup":
			directAttrGroups = append(directAttrGroups, child)
		case "anyAttribute":
			directAnyAttr = child
		case "assert":
			directAssertions = append(directAssertions, child)
		}
	}

	switch {
	case simpleContentChild != nil:
		buildSimpleContentType(simpleContentChild, schema, ct)
	case complexContentChild != nil:
		buildComplexContentType(complexContentChild, schema, ct)
	case directModelGroup != nil:
		ct.Content = ElementOnlyContent
		if ct.Mixed {
			ct.Content = MixedContent
		}
		ct.Particle = buildDirectParticle(directModelGroup, schema, ct)
	default:
		ct.Content = EmptyContent
	}

	for _, child := range directAttrs {
		if a := buildAttributeParticle(child, schema, ct); a != nil {
			ct.Attributes = append(ct.Attributes, a)
		}
	}
	for _, child := range directAttrGroups {
		if ref := string(child.GetAttribute("ref")); ref != "" {
			ct.AttributeGroup = append(ct.AttributeGroup, ParseQName(schema.namespaces, ref, schema.TargetNamespace))
		}
	}
	if directAnyAttr != nil {
		ct.AnyAttribute = buildInlineWildcard(directAnyAttr, schema, ct)
	}
	for _, child := range directAssertions {
		ct.Assertions = append(ct.Assertions, buildInlineAssertion(child, schema, ct))
	}

	ct.state = StateBuilt
	return nil
}

// buildInlineComplexType builds an anonymous complexType directly, without
// registering it in the GlobalMap.
func buildInlineComplexType(elem xmldom.Element, schema *Schema, parent Component) *ComplexType {
	ct := &ComplexType{Ref: newRef(KindComplexType, schema, elem, parent)}
	_ = buildComplexType(elem, schema, parent, ct)
	return ct
}

func buildDirectParticle(elem xmldom.Element, schema *Schema, parent Component) Particle {
	if string(elem.LocalName()) == "group" {
		ref := string(elem.GetAttribute("ref"))
		qname := ParseQName(schema.namespaces, ref, schema.TargetNamespace)
		c, err := schema.globals.globalMap.lookup(StoreGroups, qname)
		if err != nil {
			parseErrorOrPanic(parent, err.(*BuildError).WithQName(qname))
			return nil
		}
		named, _ := c.(*ModelGroup)
		return named
	}
	mg := &ModelGroup{Ref: newRef(KindModelGroup, schema, elem, parent)}
	_ = buildModelGroup(elem, schema, parent, mg)
	return mg
}

func buildSimpleContentType(elem xmldom.Element, schema *Schema, ct *ComplexType) {
	ct.Content = SimpleContentKind
	shape := firstChildNamed(elem, "restriction")
	isExtension := false
	if shape == nil {
		shape = firstChildNamed(elem, "extension")
		isExtension = true
	}
	if shape == nil {
		parseErrorOrPanic(ct, NewBuildError(ErrStructural, "MissingShape",
			"simpleContent must have a restriction or extension child").WithQName(ct.Name()))
		return
	}

	baseAttr := string(shape.GetAttribute("base"))
	ct.BaseName = ParseQName(schema.namespaces, baseAttr, schema.TargetNamespace)
	ct.Base = resolveTypeRef(schema, ct.BaseName)

	var baseSimple *SimpleType
	switch b := ct.Base.(type) {
	case *SimpleType:
		baseSimple = b
	case *ComplexType:
		baseSimple = b.SimpleTypeContent
	}

	if isExtension {
		ct.Derivation = DerivationExtension
		ct.SimpleTypeContent = baseSimple
	} else {
		ct.Derivation = DerivationRestriction
		derived := &SimpleType{Ref: newRef(KindSimpleType, schema, shape, ct)}
		derived.Variant = VariantAtomic
		derived.Facets = newFacetSet()
		applyFacetChildren(shape, derived)
		if baseSimple != nil {
			derived.BaseType = baseSimple
			derived.Primitive = baseSimple.Primitive
			derived.lexical = baseSimple.lexical
			derived.Facets.Merge(baseSimple.Facets)
		}
		ct.SimpleTypeContent = derived
	}

	children := shape.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "attribute":
			if a := buildAttributeParticle(child, schema, ct); a != nil {
				ct.Attributes = append(ct.Attributes, a)
			}
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ct.AttributeGroup = append(ct.AttributeGroup, ParseQName(schema.namespaces, ref, schema.TargetNamespace))
			}
		case "anyAttribute":
			ct.AnyAttribute = buildInlineWildcard(child, schema, ct)
		}
	}

	if baseCT, ok := ct.Base.(*ComplexType); ok {
		ct.Attributes = append(append([]*Attribute(nil), baseCT.Attributes...), ct.Attributes...)
		if ct.AnyAttribute == nil {
			ct.AnyAttribute = baseCT.AnyAttribute
		}
	}
}

func applyFacetChildren(shape xmldom.Element, derived *SimpleType) {
	children := shape.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		name := string(child.LocalName())
		if name == "simpleType" || name == "annotation" || name == "attribute" ||
			name == "attributeGroup" || name == "anyAttribute" {
			continue
		}
		value := string(child.GetAttribute("value"))
		fixed := string(child.GetAttribute("fixed")) == "true"
		if f := ParseFacet(name, value, fixed); f != nil {
			_ = derived.Facets.Add(f)
		}
	}
}

func buildComplexContentType(elem xmldom.Element, schema *Schema, ct *ComplexType) {
	if string(elem.GetAttribute("mixed")) == "true" {
		ct.Mixed = true
	}

	shape := firstChildNamed(elem, "restriction")
	isExtension := false
	if shape == nil {
		shape = firstChildNamed(elem, "extension")
		isExtension = true
	}
	if shape == nil {
		parseErrorOrPanic(ct, NewBuildError(ErrStructural, "MissingShape",
			"complexContent must have a restriction or extension child").WithQName(ct.Name()))
		return
	}

	ct.Content = ElementOnlyContent
	if ct.Mixed {
		ct.Content = MixedContent
	}

	baseAttr := string(shape.GetAttribute("base"))
	ct.BaseName = ParseQName(schema.namespaces, baseAttr, schema.TargetNamespace)
	ct.Base = resolveTypeRef(schema, ct.BaseName)
	baseCT, _ := ct.Base.(*ComplexType)

	var ownParticle Particle
	children := shape.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "sequence", "choice", "all", "group":
			ownParticle = buildDirectParticle(child, schema, ct)
		case "attribute":
			if a := buildAttributeParticle(child, schema, ct); a != nil {
				ct.Attributes = append(ct.Attributes, a)
			}
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ct.AttributeGroup = append(ct.AttributeGroup, ParseQName(schema.namespaces, ref, schema.TargetNamespace))
			}
		case "anyAttribute":
			ct.AnyAttribute = buildInlineWildcard(child, schema, ct)
		}
	}

	if isExtension {
		ct.Derivation = DerivationExtension
		if baseCT != nil {
			ct.Attributes = append(append([]*Attribute(nil), baseCT.Attributes...), ct.Attributes...)
			if ct.AnyAttribute == nil {
				ct.AnyAttribute = baseCT.AnyAttribute
			}
			if baseCT.Particle != nil && ownParticle != nil {
				ct.Particle = &ModelGroup{
					Ref:       newRef(KindModelGroup, schema, shape, ct),
					GroupKind: SequenceGroup,
					MinOcc:    1,
					MaxOcc:    1,
					Particles: []Particle{baseCT.Particle, ownParticle},
				}
			} else if baseCT.Particle != nil {
				ct.Particle = baseCT.Particle
			} else {
				ct.Particle = ownParticle
			}
		} else {
			ct.Particle = ownParticle
		}
	} else {
		ct.Derivation = DerivationRestriction
		ct.Particle = ownParticle
		// A restriction's particle must be a valid restriction of the
		// base's particle (XSD 1.0 §3.4.6); the post-build
		// checkRestrictionLegality (checks.go) compares compositors and
		// occurrence bounds only, not the full subset-of-content-model rule.
	}
}
