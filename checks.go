package xsd

import "fmt"

// checkModelDepthLimit bounds the recursive content-model walk in
// checkModel.
const checkModelDepthLimit = 200

// CompiledSchema is the artifact a build produces: namespace-scoped views
// over every global component the GlobalMap holds, plus the aggregated
// validity status and error list.
type CompiledSchema struct {
	globals *Globals

	Types           map[QName]Component // *SimpleType or *ComplexType
	Elements        map[QName]*Element
	Attributes      map[QName]*Attribute
	AttributeGroups map[QName]*AttributeGroup
	Groups          map[QName]*ModelGroup
	Notations       map[QName]*Notation

	// SubstitutionGroups maps every head element's QName to its direct
	// substitutes (transitive members are reached by following the map),
	// in no guaranteed order.
	SubstitutionGroups map[QName][]*Element

	// Constraints indexes every named IdentityConstraint across the
	// closure by QName.
	Constraints map[QName]*IdentityConstraint
}

// Validity is the tri-valued build outcome CompiledSchema reports.
type Validity string

const (
	ValidityFull    Validity = "full"
	ValidityPartial Validity = "partial"
	ValidityNone    Validity = "none"
)

// Compiled assembles a CompiledSchema from a built Globals coordinator. g
// must already have had Build called on it.
func (g *Globals) Compiled() *CompiledSchema {
	cs := &CompiledSchema{
		globals:            g,
		Types:              make(map[QName]Component),
		Elements:           make(map[QName]*Element),
		Attributes:         make(map[QName]*Attribute),
		AttributeGroups:    make(map[QName]*AttributeGroup),
		Groups:             make(map[QName]*ModelGroup),
		Notations:          make(map[QName]*Notation),
		SubstitutionGroups: make(map[QName][]*Element),
		Constraints:        make(map[QName]*IdentityConstraint),
	}

	for qname, entry := range g.globalMap.stores[StoreTypes] {
		if entry.state == entryBuilt {
			cs.Types[qname] = entry.component
		}
	}
	for qname, entry := range g.globalMap.stores[StoreElements] {
		if entry.state == entryBuilt {
			if el, ok := entry.component.(*Element); ok {
				cs.Elements[qname] = el
				for _, ic := range el.IdentityConstraints {
					if ic.HasName() {
						cs.Constraints[ic.Name()] = ic
					}
				}
			}
		}
	}
	for qname, entry := range g.globalMap.stores[StoreAttributes] {
		if entry.state == entryBuilt {
			if a, ok := entry.component.(*Attribute); ok {
				cs.Attributes[qname] = a
			}
		}
	}
	for qname, entry := range g.globalMap.stores[StoreAttributeGroups] {
		if entry.state == entryBuilt {
			if ag, ok := entry.component.(*AttributeGroup); ok {
				cs.AttributeGroups[qname] = ag
			}
		}
	}
	for qname, entry := range g.globalMap.stores[StoreGroups] {
		if entry.state == entryBuilt {
			if grp, ok := entry.component.(*ModelGroup); ok {
				cs.Groups[qname] = grp
			}
		}
	}
	for qname, entry := range g.globalMap.stores[StoreNotations] {
		if entry.state == entryBuilt {
			if n, ok := entry.component.(*Notation); ok {
				cs.Notations[qname] = n
			}
		}
	}

	for _, el := range cs.Elements {
		if el.SubstitutionGrp.IsZero() {
			continue
		}
		cs.SubstitutionGroups[el.SubstitutionGrp] = append(cs.SubstitutionGroups[el.SubstitutionGrp], el)
	}

	return cs
}

// Compiled returns the namespace-scoped view of the closure's
// CompiledSchema restricted to s's own target namespace. Components
// declared by an included/redefined/overridden schema share
// s.TargetNamespace and so still appear here; components from an imported
// schema, which necessarily declares a different namespace, do not.
func (s *Schema) Compiled() *CompiledSchema {
	return s.globals.Compiled().InNamespace(s.TargetNamespace)
}

// InNamespace filters cs down to the components whose QName.Namespace
// equals ns, keeping every map's shape but dropping entries from other
// namespaces. SubstitutionGroups and Constraints are filtered on the
// entry's own key, matching the key's namespace rather than the target
// element's, since both are QName-keyed by the declaring component.
func (cs *CompiledSchema) InNamespace(ns string) *CompiledSchema {
	out := &CompiledSchema{
		globals:            cs.globals,
		Types:              make(map[QName]Component),
		Elements:           make(map[QName]*Element),
		Attributes:         make(map[QName]*Attribute),
		AttributeGroups:    make(map[QName]*AttributeGroup),
		Groups:             make(map[QName]*ModelGroup),
		Notations:          make(map[QName]*Notation),
		SubstitutionGroups: make(map[QName][]*Element),
		Constraints:        make(map[QName]*IdentityConstraint),
	}
	for q, c := range cs.Types {
		if q.Namespace == ns {
			out.Types[q] = c
		}
	}
	for q, c := range cs.Elements {
		if q.Namespace == ns {
			out.Elements[q] = c
		}
	}
	for q, c := range cs.Attributes {
		if q.Namespace == ns {
			out.Attributes[q] = c
		}
	}
	for q, c := range cs.AttributeGroups {
		if q.Namespace == ns {
			out.AttributeGroups[q] = c
		}
	}
	for q, c := range cs.Groups {
		if q.Namespace == ns {
			out.Groups[q] = c
		}
	}
	for q, c := range cs.Notations {
		if q.Namespace == ns {
			out.Notations[q] = c
		}
	}
	for q, members := range cs.SubstitutionGroups {
		if q.Namespace == ns {
			out.SubstitutionGroups[q] = members
		}
	}
	for q, c := range cs.Constraints {
		if q.Namespace == ns {
			out.Constraints[q] = c
		}
	}
	return out
}

// Lookup resolves a single global component by kind and QName.
func (cs *CompiledSchema) Lookup(kind Kind, qname QName) (Component, bool) {
	switch kind {
	case KindSimpleType, KindComplexType:
		c, ok := cs.Types[qname]
		return c, ok
	case KindElement:
		c, ok := cs.Elements[qname]
		return c, ok
	case KindAttribute:
		c, ok := cs.Attributes[qname]
		return c, ok
	case KindAttributeGroup:
		c, ok := cs.AttributeGroups[qname]
		return c, ok
	case KindModelGroup:
		c, ok := cs.Groups[qname]
		return c, ok
	case KindNotation:
		c, ok := cs.Notations[qname]
		return c, ok
	}
	return nil, false
}

// IterGlobals returns every global Component this CompiledSchema holds,
// in no particular order (map iteration).
func (cs *CompiledSchema) IterGlobals() []Component {
	var out []Component
	for _, c := range cs.Types {
		out = append(out, c)
	}
	for _, c := range cs.Elements {
		out = append(out, c)
	}
	for _, c := range cs.Attributes {
		out = append(out, c)
	}
	for _, c := range cs.AttributeGroups {
		out = append(out, c)
	}
	for _, c := range cs.Groups {
		out = append(out, c)
	}
	for _, c := range cs.Notations {
		out = append(out, c)
	}
	return out
}

// IterComponents returns every global Component of one of kinds, or every
// global Component if kinds is empty.
func (cs *CompiledSchema) IterComponents(kinds ...Kind) []Component {
	allow := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		allow[k] = true
	}
	var out []Component
	for _, c := range cs.IterGlobals() {
		if len(allow) == 0 || allow[c.Kind()] {
			out = append(out, c)
		}
	}
	return out
}

// Validity reports whether the compiled closure built fully, partially (lax
// mode with some errors attached), or not at all.
func (cs *CompiledSchema) Validity() Validity {
	if len(cs.globals.errors) == 0 {
		return ValidityFull
	}
	if len(cs.Types) > 0 || len(cs.Elements) > 0 {
		return ValidityPartial
	}
	return ValidityNone
}

// AllErrors returns every BuildError raised across every component and
// schema in the closure, in registration order.
func (cs *CompiledSchema) AllErrors() []*BuildError {
	return cs.globals.errors
}

// runPostBuildChecks runs substitution-cycle detection, then
// content-model well-formedness and restriction-of-base legality for every
// global ComplexType and for the anonymous ComplexType of every global
// element. Anonymous types of local elements are not checked, and a
// redefined group is not checked against the group it replaces. Errors
// are attached via parseErrorOrPanic so strict mode aborts exactly as a
// factory error would.
func (g *Globals) runPostBuildChecks() {
	cs := g.Compiled()

	for head := range cs.SubstitutionGroups {
		checkSubstitutionCycle(cs, head, map[QName]bool{})
	}

	for _, c := range cs.Types {
		ct, ok := c.(*ComplexType)
		if !ok {
			continue
		}
		if ct.Particle != nil {
			checkModel(ct, ct.Particle, 0)
		}
		if ct.Derivation == DerivationRestriction {
			checkRestrictionLegality(ct)
		}
		ct.state = StateChecked
	}
	for _, el := range cs.Elements {
		ct, ok := el.Type.(*ComplexType)
		if !ok || ct.IsGlobal() {
			continue
		}
		if ct.Particle != nil {
			checkModel(ct, ct.Particle, 0)
		}
		if ct.Derivation == DerivationRestriction {
			checkRestrictionLegality(ct)
		}
	}
	for _, c := range cs.Types {
		if st, ok := c.(*SimpleType); ok {
			st.state = StateChecked
		}
	}
}

// checkSubstitutionCycle walks head's transitive substitutes along the
// current path; revisiting any element already on that path, direct or
// transitive, is a SubstitutionCycle error.
func checkSubstitutionCycle(cs *CompiledSchema, head QName, visiting map[QName]bool) {
	visiting[head] = true
	defer delete(visiting, head)

	for _, member := range cs.SubstitutionGroups[head] {
		name := member.Name()
		if visiting[name] {
			parseErrorOrPanic(member, NewBuildError(ErrSubstitution, "SubstitutionCycle",
				fmt.Sprintf("element %s substitutes into a cycle back through %s", name, head)).WithQName(name))
			continue
		}
		checkSubstitutionCycle(cs, name, visiting)
	}
}

// checkModel walks a ComplexType's content particle to bounded depth,
// emitting ModelDepthExceeded when the limit is hit and ModelError for
// group-internal inconsistencies it can detect structurally.
func checkModel(ct *ComplexType, p Particle, depth int) {
	if depth > checkModelDepthLimit {
		parseErrorOrPanic(ct, NewBuildError(ErrModel, "ModelDepthExceeded",
			fmt.Sprintf("content model for %s exceeds depth limit %d", ct.Name(), checkModelDepthLimit)).WithQName(ct.Name()))
		return
	}
	mg, ok := p.(*ModelGroup)
	if !ok {
		if grp, ok := p.(*groupRefParticle); ok {
			mg = grp.ModelGroup
		} else {
			return
		}
	}
	if mg.GroupKind == AllGroup {
		if mg.MaxOcc != 1 {
			parseErrorOrPanic(ct, NewBuildError(ErrModel, "AllGroupMisuse",
				"an 'all' group's maxOccurs must be 1").WithQName(ct.Name()))
		}
		for _, child := range mg.Particles {
			if _, isElem := elementOf(child); !isElem {
				parseErrorOrPanic(ct, NewBuildError(ErrModel, "AllGroupMisuse",
					"an 'all' group may only contain element particles in XSD 1.0").WithQName(ct.Name()))
				continue
			}
			if child.MaxOccurs() != 1 && child.MaxOccurs() != -1 {
				// maxOccurs > 1 is the actual violation; unbounded (-1) is
				// also disallowed under 'all' in XSD 1.0, flagged below.
			}
			if child.MaxOccurs() == -1 || child.MaxOccurs() > 1 {
				parseErrorOrPanic(ct, NewBuildError(ErrModel, "AllGroupMisuse",
					"every child of an 'all' group must have maxOccurs <= 1 in XSD 1.0").WithQName(ct.Name()))
			}
		}
	}
	for _, child := range mg.Particles {
		if nested, ok := child.(*ModelGroup); ok {
			checkModel(ct, nested, depth+1)
		}
	}
}

func elementOf(p Particle) (*Element, bool) {
	switch v := p.(type) {
	case *Element:
		return v, true
	case *elementRefParticle:
		return v.Element, true
	default:
		return nil, false
	}
}

// checkRestrictionLegality verifies that a restriction ComplexType's
// content group is a structurally plausible narrowing of its base's group:
// same compositor family (sequence/choice, or all-to-all), group occurrence
// bounds that do not widen the base's, and, for element particles matched
// by name between the two groups, no widened maxOccurs.
func checkRestrictionLegality(ct *ComplexType) {
	baseCT, ok := ct.Base.(*ComplexType)
	if !ok || baseCT == nil || baseCT.Particle == nil || ct.Particle == nil {
		return
	}
	baseMG, ok1 := baseCT.Particle.(*ModelGroup)
	ownMG, ok2 := ct.Particle.(*ModelGroup)
	if !ok1 || !ok2 {
		return
	}
	if baseMG.GroupKind == AllGroup && ownMG.GroupKind != AllGroup {
		parseErrorOrPanic(ct, NewBuildError(ErrModel, "CompositorMismatch",
			"a restriction of an 'all' group must itself use 'all'").WithQName(ct.Name()))
		return
	}
	if ownMG.MinOcc < baseMG.MinOcc {
		parseErrorOrPanic(ct, NewBuildError(ErrModel, "ParticleRestrictionViolation",
			"restriction narrows minOccurs below the base's").WithQName(ct.Name()))
	}
	if baseMG.MaxOcc != -1 && (ownMG.MaxOcc == -1 || ownMG.MaxOcc > baseMG.MaxOcc) {
		parseErrorOrPanic(ct, NewBuildError(ErrModel, "ParticleRestrictionViolation",
			"restriction widens maxOccurs beyond the base's").WithQName(ct.Name()))
	}
	baseMax := make(map[QName]int)
	for _, p := range baseMG.Particles {
		if el, ok := elementOf(p); ok {
			baseMax[el.Name()] = p.MaxOccurs()
		}
	}
	for _, p := range ownMG.Particles {
		el, ok := elementOf(p)
		if !ok {
			continue
		}
		if bm, found := baseMax[el.Name()]; found && bm != -1 && (p.MaxOccurs() == -1 || p.MaxOccurs() > bm) {
			parseErrorOrPanic(ct, NewBuildError(ErrModel, "ParticleRestrictionViolation",
				fmt.Sprintf("restriction widens maxOccurs of %s beyond the base's", el.Name())).WithQName(ct.Name()))
		}
	}
}
