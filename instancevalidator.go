package xsd

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// instancevalidator.go is a thin reference consumer of CompiledSchema: it
// walks an XML instance document against the compiled component graph the
// way an out-of-scope external XML instance validation/decoding/encoding
// collaborator would, reading the CompiledSchema maps directly and
// exercising every Component variant's shape. It is not itself core: the compilation engine above it
// is.

// Violation is a single instance-validation failure, named after the XSD
// "cvc-*" constraint-violation codes the W3C recommendation uses.
type Violation struct {
	Code      string
	Message   string
	Element   xmldom.Element
	Attribute string
	Expected  []string
	Actual    string
}

func (v Violation) String() string {
	if v.Attribute != "" {
		return fmt.Sprintf("%s: %s (attribute %q)", v.Code, v.Message, v.Attribute)
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// Validator checks an XML instance document against a CompiledSchema.
type Validator struct {
	schema *CompiledSchema
	ids    map[string]xmldom.Element
}

// NewValidator returns a Validator bound to a successfully compiled schema.
func NewValidator(schema *CompiledSchema) *Validator {
	return &Validator{schema: schema, ids: make(map[string]xmldom.Element)}
}

// Validate walks doc's root element against the global Element declaration
// matching its QName, recursively validating content and attributes.
func (v *Validator) Validate(doc xmldom.Document) []Violation {
	root := doc.DocumentElement()
	if root == nil {
		return []Violation{{Code: "cvc-elt.1", Message: "document has no root element"}}
	}
	qname := QName{Namespace: string(root.NamespaceURI()), Local: string(root.LocalName())}
	decl, ok := v.schema.Elements[qname]
	if !ok {
		return []Violation{{Code: "cvc-elt.1", Message: "no global element declaration for " + qname.String(), Element: root}}
	}
	var violations []Violation
	v.validateElement(root, decl, &violations)
	return violations
}

func (v *Validator) validateElement(elem xmldom.Element, decl *Element, out *[]Violation) {
	if decl.Abstract {
		*out = append(*out, Violation{Code: "cvc-elt.2", Message: "abstract element cannot appear in an instance", Element: elem})
	}

	if nilAttr := string(elem.GetAttributeNS(XSINamespace, "nil")); nilAttr == "true" {
		if !decl.Nillable {
			*out = append(*out, Violation{Code: "cvc-elt.3.1", Message: "element is not nillable", Element: elem})
		}
		return
	}

	switch t := decl.Type.(type) {
	case *ComplexType:
		v.validateComplexType(elem, t, out)
	case *SimpleType:
		v.validateSimpleContent(elem, t, out)
	}

	if decl.Fixed != "" {
		if text := elem.TextContent(); string(text) != decl.Fixed {
			*out = append(*out, Violation{Code: "cvc-elt.5.2.2.1", Message: "value does not match fixed value " + decl.Fixed, Element: elem, Actual: string(text)})
		}
	}

	if id := string(elem.GetAttribute("id")); id != "" {
		if existing, dup := v.ids[id]; dup && existing != elem {
			*out = append(*out, Violation{Code: "cvc-id.2", Message: "duplicate ID value " + id, Element: elem})
		}
		v.ids[id] = elem
	}
}

func (v *Validator) validateSimpleContent(elem xmldom.Element, st *SimpleType, out *[]Violation) {
	text := string(elem.TextContent())
	if err := st.Validate(text); err != nil {
		*out = append(*out, Violation{Code: "cvc-type.3.1.3", Message: err.Error(), Element: elem, Actual: text})
	}
}

func (v *Validator) validateComplexType(elem xmldom.Element, ct *ComplexType, out *[]Violation) {
	v.validateAttributes(elem, ct, out)

	switch ct.Content {
	case EmptyContent:
		if hasElementChildren(elem) {
			*out = append(*out, Violation{Code: "cvc-complex-type.2.1", Message: "element content not allowed on an empty-content type", Element: elem})
		}
	case SimpleContentKind:
		if ct.SimpleTypeContent != nil {
			v.validateSimpleContent(elem, ct.SimpleTypeContent, out)
		}
	case ElementOnlyContent, MixedContent:
		if ct.Particle != nil {
			children := elementChildren(elem)
			idx := 0
			if !v.matchParticle(ct.Particle, children, &idx, out) || idx < len(children) {
				expected := particleExpectedNames(ct.Particle)
				actual := ""
				if idx < len(children) {
					actual = string(children[idx].LocalName())
				}
				*out = append(*out, Violation{
					Code: "cvc-complex-type.2.4.a", Message: "content does not match the declared model",
					Element: elem, Expected: expected, Actual: actual,
				})
			}
		}
	}
}

// matchParticle greedily consumes children starting at *idx against p,
// advancing *idx on every successful match. This is a simplified matcher
// (no backtracking across choice branches that fork on a shared first
// element), adequate for validating well-formed, unambiguous content
// models; it is not a full Glushkov/Thompson content-model automaton.
func (v *Validator) matchParticle(p Particle, children []xmldom.Element, idx *int, out *[]Violation) bool {
	count := 0
	for count < maxOccursCap(p.MaxOccurs()) {
		if !v.tryMatchOnce(p, children, idx, out) {
			break
		}
		count++
	}
	return count >= p.MinOccurs()
}

func maxOccursCap(max int) int {
	if max == -1 {
		return 1 << 30
	}
	return max
}

func (v *Validator) tryMatchOnce(p Particle, children []xmldom.Element, idx *int, out *[]Violation) bool {
	switch particle := p.(type) {
	case *Element:
		return v.tryMatchElement(particle, children, idx, out)
	case *elementRefParticle:
		return v.tryMatchElement(particle.Element, children, idx, out)
	case *Wildcard:
		if *idx >= len(children) {
			return false
		}
		ns := string(children[*idx].NamespaceURI())
		if !particle.Constraint.Matches(ns) {
			return false
		}
		*idx++
		return true
	case *ModelGroup:
		return v.tryMatchGroup(particle, children, idx, out)
	case *groupRefParticle:
		return v.tryMatchGroup(particle.ModelGroup, children, idx, out)
	}
	return false
}

func (v *Validator) tryMatchElement(decl *Element, children []xmldom.Element, idx *int, out *[]Violation) bool {
	if *idx >= len(children) {
		return false
	}
	child := children[*idx]
	actual := matchingElement(v.schema, decl, child)
	if actual == nil {
		return false
	}
	*idx++
	v.validateElement(child, actual, out)
	return true
}

// matchingElement returns the Element declaration child actually satisfies
// at a particle expecting decl: decl itself on a direct QName match, or the
// substituting member's own declaration when child names a substitution-group
// member of decl — the member's own type/nillable/abstract govern its
// instance, not the head's.
func matchingElement(cs *CompiledSchema, decl *Element, child xmldom.Element) *Element {
	childQName := QName{Namespace: string(child.NamespaceURI()), Local: string(child.LocalName())}
	if childQName == decl.Name() {
		return decl
	}
	for _, member := range cs.SubstitutionGroups[decl.Name()] {
		if member.Name() == childQName {
			return member
		}
	}
	return nil
}

func (v *Validator) tryMatchGroup(mg *ModelGroup, children []xmldom.Element, idx *int, out *[]Violation) bool {
	switch mg.GroupKind {
	case SequenceGroup:
		start := *idx
		for _, part := range mg.Particles {
			if !v.matchParticle(part, children, idx, out) {
				*idx = start
				return false
			}
		}
		return true
	case ChoiceGroup:
		for _, part := range mg.Particles {
			save := *idx
			if v.matchParticle(part, children, idx, out) {
				return true
			}
			*idx = save
		}
		return false
	case AllGroup:
		remaining := append([]Particle(nil), mg.Particles...)
		matchedAny := false
		for len(remaining) > 0 {
			progressed := false
			for i, part := range remaining {
				save := *idx
				if v.tryMatchOnce(part, children, idx, out) {
					remaining = append(remaining[:i], remaining[i+1:]...)
					progressed = true
					matchedAny = true
					break
				}
				*idx = save
			}
			if !progressed {
				break
			}
		}
		return matchedAny || len(mg.Particles) == 0
	}
	return false
}

func particleExpectedNames(p Particle) []string {
	var names []string
	switch particle := p.(type) {
	case *Element:
		names = append(names, particle.Name().String())
	case *elementRefParticle:
		names = append(names, particle.Name().String())
	case *Wildcard:
		names = append(names, "##any")
	case *ModelGroup:
		for _, child := range particle.Particles {
			names = append(names, particleExpectedNames(child)...)
		}
	case *groupRefParticle:
		names = append(names, particleExpectedNames(particle.ModelGroup)...)
	}
	return names
}

func (v *Validator) validateAttributes(elem xmldom.Element, ct *ComplexType, out *[]Violation) {
	attrs, wildcard := collectComplexTypeAttributes(v.schema, ct)
	seen := make(map[string]bool)

	for _, a := range attrs {
		node := elem.GetAttributeNode(xmldom.DOMString(a.Name().Local))
		if node == nil {
			if a.Use == UseRequired {
				*out = append(*out, Violation{Code: "cvc-complex-type.4", Message: "missing required attribute " + a.Name().Local, Element: elem, Attribute: a.Name().Local})
			}
			continue
		}
		seen[a.Name().Local] = true
		value := string(node.NodeValue())
		if a.Use == UseProhibited {
			*out = append(*out, Violation{Code: "cvc-complex-type.3.2.1", Message: "attribute " + a.Name().Local + " is prohibited", Element: elem, Attribute: a.Name().Local})
			continue
		}
		if a.Fixed != "" && value != a.Fixed {
			*out = append(*out, Violation{Code: "cvc-complex-type.3.2.2", Message: "attribute does not match its fixed value", Element: elem, Attribute: a.Name().Local, Actual: value})
		}
		if a.Type != nil {
			if err := a.Type.Validate(value); err != nil {
				*out = append(*out, Violation{Code: "cvc-attribute.3", Message: err.Error(), Element: elem, Attribute: a.Name().Local, Actual: value})
			}
		}
	}

	attrNode := elem.Attributes()
	for i := uint(0); i < attrNode.Length(); i++ {
		attr := attrNode.Item(i)
		if attr == nil {
			continue
		}
		local := string(attr.LocalName())
		ns := string(attr.NamespaceURI())
		if local == "xmlns" || strings.HasPrefix(string(attr.NodeName()), "xmlns:") || ns == XSINamespace {
			continue
		}
		if seen[local] {
			continue
		}
		if wildcard != nil && wildcard.Constraint.Matches(ns) {
			continue
		}
		*out = append(*out, Violation{Code: "cvc-complex-type.3.2.2", Message: "attribute " + local + " is not declared", Element: elem, Attribute: local})
	}
}

// collectComplexTypeAttributes flattens ct's own attributes with its
// referenced attribute groups.
func collectComplexTypeAttributes(cs *CompiledSchema, ct *ComplexType) ([]*Attribute, *Wildcard) {
	attrs := append([]*Attribute(nil), ct.Attributes...)
	wildcard := ct.AnyAttribute
	visited := make(map[QName]bool)
	for _, ref := range ct.AttributeGroup {
		ag, ok := cs.AttributeGroups[ref]
		if !ok {
			continue
		}
		otherAttrs, otherWildcard := expandAttributeGroupsCompiled(cs, ag, visited)
		attrs = append(attrs, otherAttrs...)
		if wildcard == nil {
			wildcard = otherWildcard
		}
	}
	return attrs, wildcard
}

func expandAttributeGroupsCompiled(cs *CompiledSchema, ag *AttributeGroup, visited map[QName]bool) ([]*Attribute, *Wildcard) {
	attrs := append([]*Attribute(nil), ag.Attributes...)
	wildcard := ag.AnyAttribute
	for _, ref := range ag.GroupRefs {
		if visited[ref] {
			continue
		}
		visited[ref] = true
		other, ok := cs.AttributeGroups[ref]
		if !ok {
			continue
		}
		otherAttrs, otherWildcard := expandAttributeGroupsCompiled(cs, other, visited)
		attrs = append(attrs, otherAttrs...)
		if wildcard == nil {
			wildcard = otherWildcard
		}
	}
	return attrs, wildcard
}

func hasElementChildren(elem xmldom.Element) bool {
	return len(elementChildren(elem)) > 0
}

func elementChildren(elem xmldom.Element) []xmldom.Element {
	var out []xmldom.Element
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		if child := children.Item(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}
