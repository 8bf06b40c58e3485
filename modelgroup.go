package xsd

import "github.com/agentflare-ai/go-xmldom"

// ModelGroupKind is sequence, choice, or all.
type ModelGroupKind int

const (
	SequenceGroup ModelGroupKind = iota
	ChoiceGroup
	AllGroup
)

// Particle is anything that can appear inside a ModelGroup's content:
// an element (by reference or inline declaration), a nested model group,
// a group reference, or a wildcard.
type Particle interface {
	MinOccurs() int
	MaxOccurs() int
}

// ModelGroup is a sequence/choice/all content particle, itself built from
// nested particles.
type ModelGroup struct {
	Ref

	GroupKind ModelGroupKind
	MinOcc    int
	MaxOcc    int
	Particles []Particle
}

func (mg *ModelGroup) MinOccurs() int { return mg.MinOcc }
func (mg *ModelGroup) MaxOccurs() int { return mg.MaxOcc }

// groupRefParticle wraps a named group's resolved ModelGroup with the
// occurrence range given at the reference site, which may differ from the
// named group's own (always 1,1) range.
type groupRefParticle struct {
	*ModelGroup
	minOcc int
	maxOcc int
}

func (g *groupRefParticle) MinOccurs() int { return g.minOcc }
func (g *groupRefParticle) MaxOccurs() int { return g.maxOcc }

func newEmptyModelGroup(schema *Schema, elem xmldom.Element, parent Component) Component {
	return &ModelGroup{Ref: newRef(KindModelGroup, schema, elem, parent)}
}

// newEmptyGroupDecl and buildGroupDecl are the GlobalMap factory pair
// registered for the top-level <group name="..."> tag: a named group
// declaration's own element carries the name, while its single
// sequence/choice/all child carries the actual content model.
func newEmptyGroupDecl(schema *Schema, elem xmldom.Element, parent Component) Component {
	mg := &ModelGroup{Ref: newRef(KindModelGroup, schema, elem, parent)}
	if name := string(elem.GetAttribute("name")); name != "" {
		mg.setName(QName{Namespace: schema.TargetNamespace, Local: name})
	}
	return mg
}

func buildGroupDecl(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	mg := instance.(*ModelGroup)
	content := firstChildNamed(elem, "sequence")
	if content == nil {
		content = firstChildNamed(elem, "choice")
	}
	if content == nil {
		content = firstChildNamed(elem, "all")
	}
	if content == nil {
		mg.state = StateBuilt
		return nil
	}
	return buildModelGroup(content, schema, parent, mg)
}

// buildModelGroup fills a pre-allocated ModelGroup from its <sequence>,
// <choice>, or <all> node. Used both for a named <group>'s sole content
// child and for inline occurrences anywhere a content model is expected.
func buildModelGroup(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	mg := instance.(*ModelGroup)
	mg.state = StateBuilding
	mg.MinOcc = parseOccurs(elem, "minOccurs", 1)
	mg.MaxOcc = parseOccurs(elem, "maxOccurs", 1)
	checkOccurs(mg, mg.MinOcc, mg.MaxOcc)

	switch string(elem.LocalName()) {
	case "sequence":
		mg.GroupKind = SequenceGroup
	case "choice":
		mg.GroupKind = ChoiceGroup
	case "all":
		mg.GroupKind = AllGroup
	}

	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "element":
			if p := buildElementParticle(child, schema, mg); p != nil {
				mg.Particles = append(mg.Particles, p)
			}
		case "group":
			if ref := string(child.GetAttribute("ref")); ref != "" {
				qname := ParseQName(schema.namespaces, ref, schema.TargetNamespace)
				c, err := schema.globals.globalMap.lookup(StoreGroups, qname)
				if err != nil {
					parseErrorOrPanic(mg, err.(*BuildError).WithQName(qname))
					continue
				}
				named, _ := c.(*ModelGroup)
				if named == nil {
					continue
				}
				refMin, refMax := parseOccurs(child, "minOccurs", 1), parseOccurs(child, "maxOccurs", 1)
				checkOccurs(mg, refMin, refMax)
				mg.Particles = append(mg.Particles, &groupRefParticle{
					ModelGroup: named,
					minOcc:     refMin,
					maxOcc:     refMax,
				})
			}
		case "sequence", "choice", "all":
			nested := &ModelGroup{Ref: newRef(KindModelGroup, schema, child, mg)}
			if err := buildModelGroup(child, schema, mg, nested); err == nil {
				mg.Particles = append(mg.Particles, nested)
			}
		case "any":
			mg.Particles = append(mg.Particles, buildInlineWildcard(child, schema, mg))
		}
	}

	mg.state = StateBuilt
	return nil
}

// checkOccurs flags minOccurs > maxOccurs as a Structural error.
func checkOccurs(c Component, min, max int) {
	if max != -1 && min > max {
		parseErrorOrPanic(c, NewBuildError(ErrStructural, "OccursOutOfOrder",
			"minOccurs exceeds maxOccurs"))
	}
}

func parseOccurs(elem xmldom.Element, attr string, defaultValue int) int {
	value := string(elem.GetAttribute(xmldom.DOMString(attr)))
	if value == "" {
		return defaultValue
	}
	if value == "unbounded" {
		return -1
	}
	n := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			return defaultValue
		}
		n = n*10 + int(r-'0')
	}
	return n
}
