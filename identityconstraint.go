package xsd

import "github.com/agentflare-ai/go-xmldom"

// IdentityConstraintKind is key, keyref, or unique.
type IdentityConstraintKind string

const (
	ICKey    IdentityConstraintKind = "key"
	ICKeyRef IdentityConstraintKind = "keyref"
	ICUnique IdentityConstraintKind = "unique"
)

// Selector and Field are the XPath subset an identity constraint selects
// its scope and fields with.
type Selector struct{ XPath string }
type Field struct{ XPath string }

// IdentityConstraint is a <key>/<keyref>/<unique> child of an element
// declaration.
type IdentityConstraint struct {
	Ref

	ConstraintKind IdentityConstraintKind
	Selector       *Selector
	Fields         []*Field

	ReferName QName               // raw refer= attribute, for keyref
	Refers    *IdentityConstraint // resolved target, filled post-build
}

func (ic *IdentityConstraint) MinOccurs() int { return 1 }
func (ic *IdentityConstraint) MaxOccurs() int { return 1 }

func buildInlineIdentityConstraint(elem xmldom.Element, schema *Schema, parent Component, kind IdentityConstraintKind) *IdentityConstraint {
	ic := &IdentityConstraint{Ref: newRef(KindIdentityConstraint, schema, elem, parent), ConstraintKind: kind}
	if name := string(elem.GetAttribute("name")); name != "" {
		ic.setName(QName{Namespace: schema.TargetNamespace, Local: name})
	}
	if kind == ICKeyRef {
		if refer := string(elem.GetAttribute("refer")); refer != "" {
			ic.ReferName = ParseQName(schema.namespaces, refer, schema.TargetNamespace)
		}
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "selector":
			if xpath := string(child.GetAttribute("xpath")); xpath != "" {
				ic.Selector = &Selector{XPath: xpath}
			}
		case "field":
			if xpath := string(child.GetAttribute("xpath")); xpath != "" {
				ic.Fields = append(ic.Fields, &Field{XPath: xpath})
			}
		}
	}
	if schema != nil {
		schema.pendingKeyrefs = append(schema.pendingKeyrefs, ic)
	}
	return ic
}

// Assertion is an XSD 1.1 <assert> test on a complex type's content
// (XSD 1.1 §3.13).
type Assertion struct {
	Ref

	Test string // XPath 2.0 boolean test expression
}

func buildInlineAssertion(elem xmldom.Element, schema *Schema, parent Component) *Assertion {
	return &Assertion{
		Ref:  newRef(KindAssertion, schema, elem, parent),
		Test: string(elem.GetAttribute("test")),
	}
}
