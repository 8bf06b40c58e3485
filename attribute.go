package xsd

import "github.com/agentflare-ai/go-xmldom"

// AttributeUse is the use="..." value on a local attribute.
type AttributeUse string

const (
	UseOptional   AttributeUse = "optional"
	UseRequired   AttributeUse = "required"
	UseProhibited AttributeUse = "prohibited"
)

// Attribute is a global or local attribute declaration.
type Attribute struct {
	Ref

	Type     *SimpleType
	TypeName QName
	Use      AttributeUse
	Default  string
	Fixed    string
}

func newEmptyAttribute(schema *Schema, elem xmldom.Element, parent Component) Component {
	a := &Attribute{Ref: newRef(KindAttribute, schema, elem, parent), Use: UseOptional}
	if name := string(elem.GetAttribute("name")); name != "" {
		ns := ""
		if schema != nil {
			ns = schema.TargetNamespace
		}
		a.setName(QName{Namespace: ns, Local: name})
	}
	return a
}

func buildAttribute(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	a := instance.(*Attribute)
	a.state = StateBuilding
	buildAttributeCommon(elem, schema, a)
	a.state = StateBuilt
	return nil
}

func buildAttributeCommon(elem xmldom.Element, schema *Schema, a *Attribute) {
	if use := string(elem.GetAttribute("use")); use != "" {
		a.Use = AttributeUse(use)
	}
	a.Default = string(elem.GetAttribute("default"))
	a.Fixed = string(elem.GetAttribute("fixed"))

	if typeAttr := string(elem.GetAttribute("type")); typeAttr != "" {
		a.TypeName = ParseQName(schema.namespaces, typeAttr, schema.TargetNamespace)
		a.Type = resolveSimpleTypeRef(schema, a.TypeName)
	} else if inline := firstChildNamed(elem, "simpleType"); inline != nil {
		a.Type = buildInlineSimpleType(inline, schema, a)
	}
	if a.Type == nil {
		a.Type = resolveSimpleTypeRef(schema, QName{Namespace: XSDNamespace, Local: "anySimpleType"})
	}
}

// buildAttributeParticle builds a local attribute occurrence: a reference
// to a global Attribute (resolved through the GlobalMap) or an inline
// declaration.
func buildAttributeParticle(elem xmldom.Element, schema *Schema, parent Component) *Attribute {
	if ref := string(elem.GetAttribute("ref")); ref != "" {
		qname := ParseQName(schema.namespaces, ref, schema.TargetNamespace)
		c, err := schema.globals.globalMap.lookup(StoreAttributes, qname)
		if err != nil {
			parseErrorOrPanic(parent, err.(*BuildError).WithQName(qname))
			return nil
		}
		global, _ := c.(*Attribute)
		if global == nil {
			return nil
		}
		local := *global
		if use := string(elem.GetAttribute("use")); use != "" {
			local.Use = AttributeUse(use)
		}
		return &local
	}

	name := string(elem.GetAttribute("name"))
	if name == "" {
		return nil
	}
	a := &Attribute{Ref: newRef(KindAttribute, schema, elem, parent), Use: UseOptional}
	a.setName(QName{Namespace: schema.TargetNamespace, Local: name})
	buildAttributeCommon(elem, schema, a)
	return a
}
