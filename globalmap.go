package xsd

import (
	"sync"

	"github.com/agentflare-ai/go-xmldom"
)

// Store identifies one of the Global Map's six keyed stores.
type Store int

const (
	StoreNotations Store = iota
	StoreTypes     // SimpleType and ComplexType share one store, as in the source.
	StoreAttributes
	StoreAttributeGroups
	StoreGroups
	StoreElements
	storeCount
)

func (s Store) String() string {
	switch s {
	case StoreNotations:
		return "notations"
	case StoreTypes:
		return "types"
	case StoreAttributes:
		return "attributes"
	case StoreAttributeGroups:
		return "attributeGroups"
	case StoreGroups:
		return "groups"
	case StoreElements:
		return "elements"
	default:
		return "unknown"
	}
}

// descriptor is an unbuilt (source-node, owning-schema) pair.
type descriptor struct {
	node   xmldom.Element
	schema *Schema
}

type entryState int

const (
	entryUnbuilt entryState = iota
	entryBuilding
	entryBuilt
)

// mapEntry is one Global Map slot: a declared-but-unbuilt descriptor, a
// redefinition chain, the Building sentinel, or a built Component. One
// struct represents all four because the Building sentinel must be the
// same pointer handed out during recursive lookups (see GlobalMap.lookup).
type mapEntry struct {
	state       entryState
	descriptors []descriptor // [0] is the original declaration; rest are redefinitions, in order.
	component   Component    // valid once state != entryUnbuilt.
}

// kindFactory is the pair of hooks a Store's tag needs: how to allocate an
// empty, named Component (so a cyclic self-reference has something to
// point at immediately), and how to fill it in place from a source node.
type kindFactory struct {
	newEmpty func(schema *Schema, node xmldom.Element, parent Component) Component
	build    func(node xmldom.Element, schema *Schema, parent Component, instance Component) error
}

// GlobalMap is the single owner of every global XSD component across a
// Globals coordinator's registered schemas.
type GlobalMap struct {
	mu      sync.Mutex
	globals *Globals
	stores  [storeCount]map[QName]*mapEntry
	// tagFactories maps an XSD local tag name (e.g. "simpleType") to the
	// per-kind factory hooks, for each store that can hold that tag.
	tagFactories [storeCount]map[string]kindFactory
}

func newGlobalMap(g *Globals) *GlobalMap {
	gm := &GlobalMap{globals: g}
	for i := range gm.stores {
		gm.stores[i] = make(map[QName]*mapEntry)
		gm.tagFactories[i] = make(map[string]kindFactory)
	}
	gm.registerFactories()
	return gm
}

// register records node under qname: absent -> unbuilt descriptor;
// unbuilt -> promote to a chain by appending; chain -> append.
func (gm *GlobalMap) register(store Store, qname QName, node xmldom.Element, schema *Schema) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	m := gm.stores[store]
	e, ok := m[qname]
	if !ok {
		m[qname] = &mapEntry{state: entryUnbuilt, descriptors: []descriptor{{node, schema}}}
		return
	}
	if e.state == entryUnbuilt {
		e.descriptors = append(e.descriptors, descriptor{node, schema})
	}
	// Built/Building entries are not re-registered; the Loader runs once
	// before any lookup forces construction.
}

// lookup resolves qname in store, building it on first access. The
// returned Component pointer is stable across the whole build: on first
// lookup it is allocated empty, installed as the Building sentinel, then
// filled in place, so any cyclic re-entry during the fill sees the same
// pointer (possibly still under construction).
func (gm *GlobalMap) lookup(store Store, qname QName) (Component, error) {
	gm.mu.Lock()
	e, ok := gm.stores[store][qname]
	if !ok {
		gm.mu.Unlock()
		return nil, NewBuildError(ErrReference, "MissingComponent",
			"missing a "+store.String()+" component for "+qname.String())
	}
	switch e.state {
	case entryBuilt, entryBuilding:
		c := e.component
		gm.mu.Unlock()
		return c, nil
	}

	// entryUnbuilt: dispatch on the original descriptor's tag.
	orig := e.descriptors[0]
	tag := string(orig.node.LocalName())
	kf, ok := gm.tagFactories[store][tag]
	if !ok {
		gm.mu.Unlock()
		return nil, NewBuildError(ErrReference, "WrongKind",
			"element <"+tag+"> is not valid for a "+store.String()+" global").WithQName(qname)
	}

	instance := kf.newEmpty(orig.schema, orig.node, nil)
	e.state = entryBuilding
	e.component = instance
	redefinitions := append([]descriptor(nil), e.descriptors[1:]...)
	gm.mu.Unlock()

	if err := kf.build(orig.node, orig.schema, nil, instance); err != nil {
		if be, ok := err.(*BuildError); ok {
			parseErrorOrPanic(instance, be)
		} else {
			parseErrorOrPanic(instance, NewBuildError(ErrStructural, "BuildFailed", err.Error()))
		}
	}

	gm.applyRedefinitions(qname, instance, redefinitions, kf)

	gm.mu.Lock()
	e.state = entryBuilt
	e.component = instance
	gm.mu.Unlock()
	return instance, nil
}

// applyRedefinitions re-invokes the owning factory once per redefinition
// entry, mutating the already-built component in place and snapshotting
// its pre-redefinition state onto Ref.redefine for diagnostics.
func (gm *GlobalMap) applyRedefinitions(qname QName, instance Component, chain []descriptor, kf kindFactory) {
	for _, rd := range chain {
		snapshot := shallowCopyComponent(instance)
		setRedefineSnapshot(instance, snapshot)
		if err := kf.build(rd.node, rd.schema, nil, instance); err != nil {
			if be, ok := err.(*BuildError); ok {
				parseErrorOrPanic(instance, be)
			}
		}
	}
}

// seedBuiltin installs a pre-built Component (used only for the built-in
// SimpleTypes, which have no source node and are Checked on arrival).
func (gm *GlobalMap) seedBuiltin(store Store, qname QName, c Component) {
	gm.mu.Lock()
	gm.stores[store][qname] = &mapEntry{state: entryBuilt, component: c}
	gm.mu.Unlock()
}

// queueRedefinition appends a <redefine>/<override> child as a
// redefinition descriptor on qname's existing entry, so that GlobalMap.
// lookup's call to applyRedefinitions rebuilds the component once more
// against node after the original descriptor has built it. isOverride is
// not stored: redefine and override children are queued identically.
func (gm *GlobalMap) queueRedefinition(store Store, qname QName, schema *Schema, node xmldom.Element, isOverride bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	m := gm.stores[store]
	e, ok := m[qname]
	if !ok {
		// Redefining/overriding a component that was never declared in the
		// redefined document: record it as the sole descriptor so lookup
		// still resolves it, per the original's "it's acceptable to
		// redefine a component not actually present" leniency.
		m[qname] = &mapEntry{state: entryUnbuilt, descriptors: []descriptor{{node, schema}}}
		return
	}
	e.descriptors = append(e.descriptors, descriptor{node, schema})
}

// registerFactories wires each kind's (newEmpty, build) pair against the
// XSD tag names that can appear as a global declaration of that kind.
func (gm *GlobalMap) registerFactories() {
	gm.tagFactories[StoreNotations]["notation"] = kindFactory{newEmptyNotation, buildNotation}

	gm.tagFactories[StoreTypes]["simpleType"] = kindFactory{newEmptySimpleType, buildSimpleType}
	gm.tagFactories[StoreTypes]["complexType"] = kindFactory{newEmptyComplexType, buildComplexType}

	gm.tagFactories[StoreAttributes]["attribute"] = kindFactory{newEmptyAttribute, buildAttribute}

	gm.tagFactories[StoreAttributeGroups]["attributeGroup"] = kindFactory{newEmptyAttributeGroup, buildAttributeGroup}

	gm.tagFactories[StoreGroups]["group"] = kindFactory{newEmptyGroupDecl, buildGroupDecl}

	gm.tagFactories[StoreElements]["element"] = kindFactory{newEmptyElement, buildElement}
}

// Queued redefinitions are applied in the order they were queued. Neither
// GlobalMap nor the Loader detects a component redefined more than once or
// a circular chain of redefinitions; both are applied like any other.
