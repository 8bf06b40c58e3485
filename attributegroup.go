package xsd

import (
	"fmt"

	"github.com/agentflare-ai/go-xmldom"
)

// AttributeGroup is a reusable, named collection of attribute
// declarations and wildcard.
type AttributeGroup struct {
	Ref

	Attributes     []*Attribute
	AnyAttribute   *Wildcard
	GroupRefs      []QName // other attributeGroup refs, expanded by expandAttributeGroups
}

func newEmptyAttributeGroup(schema *Schema, elem xmldom.Element, parent Component) Component {
	ag := &AttributeGroup{Ref: newRef(KindAttributeGroup, schema, elem, parent)}
	if name := string(elem.GetAttribute("name")); name != "" {
		ag.setName(QName{Namespace: schema.TargetNamespace, Local: name})
	}
	return ag
}

func buildAttributeGroup(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	ag := instance.(*AttributeGroup)
	ag.state = StateBuilding

	seen := make(map[QName]bool)
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		tag := string(child.LocalName())
		if ag.AnyAttribute != nil && (tag == "attribute" || tag == "attributeGroup") {
			parseErrorOrPanic(ag, NewBuildError(ErrStructural, "AttributesAfterWildcard",
				"attributeGroup "+ag.Name().String()+" declares an attribute after its anyAttribute wildcard").WithQName(ag.Name()))
			continue
		}
		switch tag {
		case "attribute":
			if attr := buildAttributeParticle(child, schema, ag); attr != nil {
				if attr.HasName() && seen[attr.Name()] {
					parseErrorOrPanic(ag, NewBuildError(ErrStructural, "DuplicateAttribute",
						fmt.Sprintf("attributeGroup %s declares %s more than once", ag.Name(), attr.Name())).WithQName(ag.Name()))
				} else if attr.HasName() {
					seen[attr.Name()] = true
				}
				ag.Attributes = append(ag.Attributes, attr)
			}
		case "attributeGroup":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				ag.GroupRefs = append(ag.GroupRefs, ParseQName(schema.namespaces, ref, schema.TargetNamespace))
			}
		case "anyAttribute":
			ag.AnyAttribute = buildInlineWildcard(child, schema, ag)
		}
	}

	ag.state = StateBuilt
	return nil
}

// expandAttributeGroups flattens ag.GroupRefs (and transitively theirs)
// into a single attribute list plus at most one effective wildcard, per
// the XSD 1.0 §3.6.2 "Attribute Wildcard" intersection rule simplified to
// first-wins.
func expandAttributeGroups(schema *Schema, ag *AttributeGroup, visited map[QName]bool) ([]*Attribute, *Wildcard) {
	attrs := append([]*Attribute(nil), ag.Attributes...)
	wildcard := ag.AnyAttribute

	for _, ref := range ag.GroupRefs {
		if visited[ref] {
			continue
		}
		visited[ref] = true
		c, err := schema.globals.globalMap.lookup(StoreAttributeGroups, ref)
		if err != nil {
			continue
		}
		other, _ := c.(*AttributeGroup)
		if other == nil {
			continue
		}
		otherAttrs, otherWildcard := expandAttributeGroups(schema, other, visited)
		attrs = append(attrs, otherAttrs...)
		if wildcard == nil {
			wildcard = otherWildcard
		}
	}
	return attrs, wildcard
}
