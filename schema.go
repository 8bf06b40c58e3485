package xsd

import (
	"fmt"
	"os"
	"sync"

	"github.com/agentflare-ai/go-xmldom"
)

// Schema is one parsed <xs:schema> document: a target namespace, its
// namespace bindings, and the include/import/redefine/override closure
// that contributes components into the shared Globals.
type Schema struct {
	mu sync.RWMutex

	doc  xmldom.Document
	root xmldom.Element

	Location        string
	TargetNamespace string
	namespaces      *NamespaceMap

	ElementFormDefault   string // "qualified" | "unqualified"
	AttributeFormDefault string

	globals *Globals

	// includes/imports/redefines/overrides are keyed by resolved location
	// so a location visited once in a closure is never re-fetched.
	includes  map[string]*Schema
	imports   map[string]*Schema
	redefines map[string]*Schema
	overrides map[string]*Schema

	// pendingKeyrefs collects every IdentityConstraint (key, unique and
	// keyref) built while parsing this schema; Globals.Build resolves the
	// keyrefs' ic.Refers once every schema in the closure has finished its
	// first build pass.
	pendingKeyrefs []*IdentityConstraint
}

func (s *Schema) attachError(err *BuildError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals.errors = append(s.globals.errors, err)
}

// newSchema allocates an empty Schema bound to g, ready to be filled by
// parseSchemaDocument.
func newSchema(g *Globals, location string) *Schema {
	return &Schema{
		globals:   g,
		Location:  location,
		includes:  make(map[string]*Schema),
		imports:   make(map[string]*Schema),
		redefines: make(map[string]*Schema),
		overrides: make(map[string]*Schema),
	}
}

// LoadSchemaFile reads and compiles an XSD document from disk, along with
// its full include/import/redefine/override closure.
func LoadSchemaFile(path string, opts ...Option) (*Globals, *Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := xmldom.NewDecoderFromBytes(data).Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return LoadSchemaDocument(doc, path, opts...)
}

// LoadSchemaDocument compiles an already-parsed XSD document, resolving
// its closure relative to location (used as the base URL for relative
// include/import/redefine/override locations).
func LoadSchemaDocument(doc xmldom.Document, location string, opts ...Option) (*Globals, *Schema, error) {
	g := NewGlobals(opts...)
	schema, err := g.loadRoot(doc, location)
	if err != nil {
		return nil, nil, err
	}
	if err := g.Build(); err != nil {
		return nil, nil, err
	}
	return g, schema, nil
}

// parseSchemaDocument fills an allocated Schema from its root <xs:schema>
// element: namespace bindings, form defaults, and the include/import/
// redefine/override closure, then registers its own global declarations
// into globalMap. overrideNS, when non-empty, is the chameleon-inclusion
// namespace to absorb this document's unqualified components into; it is
// applied before any global declaration is registered, since registration
// keys on schema.TargetNamespace.
func parseSchemaDocument(g *Globals, doc xmldom.Document, location string, overrideNS string) (*Schema, error) {
	root := doc.DocumentElement()
	if root == nil {
		return nil, fmt.Errorf("%s: no root element", location)
	}
	if string(root.NamespaceURI()) != XSDNamespace || string(root.LocalName()) != "schema" {
		return nil, fmt.Errorf("%s: not an XSD schema document", location)
	}

	schema := newSchema(g, location)
	schema.doc = doc
	schema.root = root
	schema.namespaces = ParseNamespaceBindings(root)

	if tns := string(root.GetAttribute("targetNamespace")); tns != "" {
		schema.TargetNamespace = tns
	} else if overrideNS != "" {
		schema.TargetNamespace = overrideNS
	}
	schema.ElementFormDefault = string(root.GetAttribute("elementFormDefault"))
	schema.AttributeFormDefault = string(root.GetAttribute("attributeFormDefault"))

	g.schemasByLocation[location] = schema
	g.schemasByNamespace[schema.TargetNamespace] = append(g.schemasByNamespace[schema.TargetNamespace], schema)

	children := root.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		switch string(child.LocalName()) {
		case "include":
			if err := schema.handleInclude(child); err != nil {
				schema.attachError(wrapStructuralError("Include", err))
			}
		case "import":
			if err := schema.handleImport(child); err != nil {
				schema.attachError(wrapStructuralError("Import", err))
			}
		case "redefine":
			if err := schema.handleRedefine(child); err != nil {
				schema.attachError(wrapStructuralError("Redefine", err))
			}
		case "override":
			if err := schema.handleOverride(child); err != nil {
				schema.attachError(wrapStructuralError("Override", err))
			}
		}
	}

	// A second top-level walk registers this schema's own global
	// declarations, now that every included/redefined/overridden schema's
	// declarations are already visible in globalMap.
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		name := string(child.GetAttribute("name"))
		if name == "" {
			continue
		}
		qname := QName{Namespace: schema.TargetNamespace, Local: name}
		switch string(child.LocalName()) {
		case "element":
			g.globalMap.register(StoreElements, qname, child, schema)
		case "simpleType", "complexType":
			g.globalMap.register(StoreTypes, qname, child, schema)
		case "attribute":
			g.globalMap.register(StoreAttributes, qname, child, schema)
		case "attributeGroup":
			g.globalMap.register(StoreAttributeGroups, qname, child, schema)
		case "group":
			g.globalMap.register(StoreGroups, qname, child, schema)
		case "notation":
			g.globalMap.register(StoreNotations, qname, child, schema)
		}
	}

	return schema, nil
}

func wrapStructuralError(what string, err error) *BuildError {
	return NewBuildError(ErrStructural, what, err.Error())
}

// handleInclude pulls another document's declarations into this schema's
// own target namespace. A chameleon include (the included document has no
// targetNamespace of its own) must absorb s.TargetNamespace before
// parseSchemaDocument registers any of its global declarations, since
// registration keys on the included Schema's TargetNamespace at the moment
// each declaration is seen.
func (s *Schema) handleInclude(elem xmldom.Element) error {
	location := string(elem.GetAttribute("schemaLocation"))
	if location == "" {
		return fmt.Errorf("include is missing schemaLocation")
	}
	resolved := resolveLocation(location, s.Location)
	if existing, ok := s.globals.schemasByLocation[resolved]; ok {
		s.includes[resolved] = existing
		return nil
	}

	handle, err := s.globals.fetcher.Fetch(location, s.Location)
	if err != nil {
		return err
	}
	included, err := parseSchemaDocument(s.globals, handle.Doc, handle.Location, s.TargetNamespace)
	if err != nil {
		return err
	}
	if included.TargetNamespace != s.TargetNamespace {
		return fmt.Errorf("include target namespace %q does not match including schema %q",
			included.TargetNamespace, s.TargetNamespace)
	}
	s.includes[resolved] = included
	return nil
}

// handleImport binds a foreign-namespace schema for cross-namespace
// reference resolution.
func (s *Schema) handleImport(elem xmldom.Element) error {
	namespace := string(elem.GetAttribute("namespace"))
	location := string(elem.GetAttribute("schemaLocation"))
	if namespace == s.TargetNamespace {
		return fmt.Errorf("import namespace %q must differ from the importing schema's target namespace", namespace)
	}
	if location == "" {
		// Namespace acknowledged but nothing to fetch; references into it
		// resolve later if some other schema in the closure supplies it.
		return nil
	}
	resolved := resolveLocation(location, s.Location)
	if existing, ok := s.globals.schemasByLocation[resolved]; ok {
		s.imports[resolved] = existing
		return nil
	}
	handle, err := s.globals.fetcher.Fetch(location, s.Location)
	if err != nil {
		return err
	}
	imported, err := parseSchemaDocument(s.globals, handle.Doc, handle.Location, "")
	if err != nil {
		return err
	}
	if imported.TargetNamespace != namespace {
		return fmt.Errorf("imported schema target namespace %q does not match import namespace %q",
			imported.TargetNamespace, namespace)
	}
	s.imports[resolved] = imported
	return nil
}

// handleRedefine includes another document and queues every redefining
// child as a redefinition descriptor against GlobalMap, so that
// GlobalMap.applyRedefinitions can rebuild each redefined component in
// the chain, oldest-base-first.
func (s *Schema) handleRedefine(elem xmldom.Element) error {
	location := string(elem.GetAttribute("schemaLocation"))
	if location == "" {
		return fmt.Errorf("redefine is missing schemaLocation")
	}
	if err := s.handleInclude(elem); err != nil {
		return err
	}
	resolved := resolveLocation(location, s.Location)
	s.redefines[resolved] = s.includes[resolved]
	return s.queueRedefinitionChildren(elem, false)
}

// handleOverride is XSD 1.1's blunter form of redefine: a replaced
// component need not be a valid restriction/extension of the original.
func (s *Schema) handleOverride(elem xmldom.Element) error {
	location := string(elem.GetAttribute("schemaLocation"))
	if location == "" {
		return fmt.Errorf("override is missing schemaLocation")
	}
	if err := s.handleInclude(elem); err != nil {
		return err
	}
	resolved := resolveLocation(location, s.Location)
	s.overrides[resolved] = s.includes[resolved]
	return s.queueRedefinitionChildren(elem, true)
}

func (s *Schema) queueRedefinitionChildren(elem xmldom.Element, isOverride bool) error {
	children := elem.Children()
	for i := uint(0); i < children.Length(); i++ {
		child := children.Item(i)
		if child == nil || string(child.NamespaceURI()) != XSDNamespace {
			continue
		}
		name := string(child.GetAttribute("name"))
		if name == "" {
			continue
		}
		qname := QName{Namespace: s.TargetNamespace, Local: name}
		var store Store
		switch string(child.LocalName()) {
		case "simpleType", "complexType":
			store = StoreTypes
		case "attributeGroup":
			store = StoreAttributeGroups
		case "group":
			store = StoreGroups
		default:
			continue
		}
		s.globals.globalMap.queueRedefinition(store, qname, s, child, isOverride)
	}
	return nil
}
