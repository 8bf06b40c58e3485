package xsd

import (
	"fmt"

	"github.com/agentflare-ai/go-xmldom"
)

// Globals is the coordinator that owns one GlobalMap shared by every
// Schema in a compiled closure, the built-in type table, and the
// resource fetcher used to pull in include/import/redefine/override
// targets.
type Globals struct {
	globalMap *GlobalMap
	mode      ValidationMode
	fetcher   ResourceFetcher
	builtins  map[string]*SimpleType

	schemasByLocation  map[string]*Schema
	schemasByNamespace map[string][]*Schema

	errors []*BuildError

	built bool
}

// Option configures a Globals coordinator at construction time.
type Option func(*Globals)

// WithValidationMode sets the strict/lax/skip error policy. Defaults to
// ModeStrict.
func WithValidationMode(mode ValidationMode) Option {
	return func(g *Globals) { g.mode = mode }
}

// WithResourceFetcher overrides how include/import/redefine/override
// locations are fetched. Defaults to a CachingResourceFetcher wrapping a
// FileResourceFetcher.
func WithResourceFetcher(f ResourceFetcher) Option {
	return func(g *Globals) { g.fetcher = f }
}

// NewGlobals allocates an empty coordinator ready to load one schema
// closure via loadRoot, then Build.
func NewGlobals(opts ...Option) *Globals {
	g := &Globals{
		mode:                ModeStrict,
		schemasByLocation:   make(map[string]*Schema),
		schemasByNamespace:  make(map[string][]*Schema),
	}
	g.globalMap = newGlobalMap(g)
	for _, opt := range opts {
		opt(g)
	}
	if g.fetcher == nil {
		g.fetcher = NewCachingResourceFetcher(FileResourceFetcher{}, "")
	}
	return g
}

// loadRoot parses doc as the closure's entry-point schema, recursively
// pulling in includes/imports/redefines/overrides it names.
func (g *Globals) loadRoot(doc xmldom.Document, location string) (*Schema, error) {
	return parseSchemaDocument(g, doc, location, "")
}

// Build runs the compile pipeline over every schema registered during
// loadRoot: seed the built-in types, force every declared global through
// GlobalMap.lookup so the whole closure is built (and, for redefinition
// chains, rebuilt in order), resolve deferred keyref targets, and
// translate a strict-mode abort back into a returned error.
func (g *Globals) Build() (err error) {
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(buildAbort)
			if !ok {
				panic(r)
			}
			err = abort.err
		}
	}()

	if g.built {
		return nil
	}

	g.builtins = seedBuiltins(g)

	for _, store := range []Store{
		StoreNotations, StoreTypes, StoreAttributes,
		StoreAttributeGroups, StoreGroups, StoreElements,
	} {
		for qname := range g.globalMap.stores[store] {
			if _, err := g.globalMap.lookup(store, qname); err != nil {
				if g.mode == ModeStrict {
					return err
				}
			}
		}
	}

	g.resolveKeyrefs()
	g.runPostBuildChecks()

	g.built = true
	if g.mode == ModeStrict {
		if len(g.errors) > 0 {
			return g.errors[0]
		}
		if unbuilt := g.firstNotBuilt(); unbuilt != "" {
			return NewBuildError(ErrStructural, "NotBuilt",
				"component "+unbuilt+" did not reach the Built state")
		}
	}
	return nil
}

// firstNotBuilt returns the QName of the first global component not in
// the Built (or Checked) state, or "" if every declared global built
// successfully.
func (g *Globals) firstNotBuilt() string {
	for _, store := range []Store{
		StoreNotations, StoreTypes, StoreAttributes,
		StoreAttributeGroups, StoreGroups, StoreElements,
	} {
		for qname, entry := range g.globalMap.stores[store] {
			if entry.state != entryBuilt {
				return qname.String()
			}
		}
	}
	return ""
}

// resolveKeyrefs binds every keyref IdentityConstraint.Refers to its
// named key/unique constraint, across every schema in the closure. The
// referent is looked up by scanning the constraints of every global
// element (constraints under local elements are not searched) because
// identity constraints are not stored in the GlobalMap — they are always
// lexically nested under an element declaration.
func (g *Globals) resolveKeyrefs() {
	named := make(map[QName]*IdentityConstraint)
	g.collectNamedConstraints(named)

	for _, schema := range g.schemasByLocation {
		for _, ic := range schema.pendingKeyrefs {
			if ic.ConstraintKind != ICKeyRef {
				continue
			}
			target, ok := named[ic.ReferName]
			if !ok {
				schema.attachError(NewBuildError(ErrReference, "UnresolvedKeyref",
					fmt.Sprintf("keyref refers to undeclared identity constraint %s", ic.ReferName)).WithQName(ic.Name()))
				continue
			}
			ic.Refers = target
		}
	}
}

func (g *Globals) collectNamedConstraints(out map[QName]*IdentityConstraint) {
	for _, entry := range g.globalMap.stores[StoreElements] {
		if entry.state != entryBuilt {
			continue
		}
		el, ok := entry.component.(*Element)
		if !ok {
			continue
		}
		for _, ic := range el.IdentityConstraints {
			if ic.HasName() {
				out[ic.Name()] = ic
			}
		}
	}
}

// Clone returns a new Globals carrying the same registered schemas and
// global descriptors as g, independently buildable without re-fetching or
// re-parsing any document. Each Schema is copied rather than shared, its
// copy's globals field repointed at the clone, so that building the clone
// resolves every cross-reference against the clone's own GlobalMap instead
// of mutating g's.
func (g *Globals) Clone() *Globals {
	clone := &Globals{
		mode:               g.mode,
		fetcher:            g.fetcher,
		schemasByLocation:  make(map[string]*Schema),
		schemasByNamespace: make(map[string][]*Schema),
	}
	clone.globalMap = newGlobalMap(clone)
	clone.builtins = seedBuiltins(clone)

	copies := make(map[*Schema]*Schema, len(g.schemasByLocation))
	var copySchema func(orig *Schema) *Schema
	copySchema = func(orig *Schema) *Schema {
		if orig == nil {
			return nil
		}
		if cp, ok := copies[orig]; ok {
			return cp
		}
		cp := &Schema{
			globals:              clone,
			doc:                  orig.doc,
			root:                 orig.root,
			Location:             orig.Location,
			TargetNamespace:      orig.TargetNamespace,
			namespaces:           orig.namespaces,
			ElementFormDefault:   orig.ElementFormDefault,
			AttributeFormDefault: orig.AttributeFormDefault,
			includes:             make(map[string]*Schema),
			imports:              make(map[string]*Schema),
			redefines:            make(map[string]*Schema),
			overrides:            make(map[string]*Schema),
		}
		copies[orig] = cp
		for loc, s := range orig.includes {
			cp.includes[loc] = copySchema(s)
		}
		for loc, s := range orig.imports {
			cp.imports[loc] = copySchema(s)
		}
		for loc, s := range orig.redefines {
			cp.redefines[loc] = copySchema(s)
		}
		for loc, s := range orig.overrides {
			cp.overrides[loc] = copySchema(s)
		}
		cp.pendingKeyrefs = append([]*IdentityConstraint(nil), orig.pendingKeyrefs...)
		return cp
	}

	for loc, schema := range g.schemasByLocation {
		clone.schemasByLocation[loc] = copySchema(schema)
	}
	for ns, schemas := range g.schemasByNamespace {
		for _, schema := range schemas {
			clone.schemasByNamespace[ns] = append(clone.schemasByNamespace[ns], copySchema(schema))
		}
	}

	for store := StoreNotations; store < storeCount; store++ {
		for qname, entry := range g.globalMap.stores[store] {
			if len(entry.descriptors) == 0 {
				// Built-in types have no descriptors; seedBuiltins(clone)
				// already installed the clone's own copy.
				continue
			}
			descriptors := make([]descriptor, len(entry.descriptors))
			for i, d := range entry.descriptors {
				descriptors[i] = descriptor{node: d.node, schema: copySchema(d.schema)}
			}
			clone.globalMap.stores[store][qname] = &mapEntry{state: entryUnbuilt, descriptors: descriptors}
		}
	}

	return clone
}
