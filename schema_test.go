package xsd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agentflare-ai/go-xmldom"
)

func mustDecode(t *testing.T, xml string) xmldom.Document {
	t.Helper()
	doc, err := xmldom.Decode(bytes.NewReader([]byte(xml)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func TestLoadSchemaDocumentBasicElement(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
	           targetNamespace="http://example.com"
	           xmlns:ex="http://example.com">
		<xs:element name="widget" type="xs:string"/>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "widget.xsd")
	if err != nil {
		t.Fatalf("LoadSchemaDocument: %v", err)
	}

	compiled := globals.Compiled()
	el, ok := compiled.Elements[QName{Namespace: "http://example.com", Local: "widget"}]
	if !ok {
		t.Fatal("expected global element 'widget' in CompiledSchema")
	}
	st, ok := el.Type.(*SimpleType)
	if !ok {
		t.Fatalf("widget type = %T, want *SimpleType", el.Type)
	}
	if st.Primitive != PrimitiveString {
		t.Errorf("widget type primitive = %v, want string", st.Primitive)
	}
	if compiled.Validity() != ValidityFull {
		t.Errorf("Validity() = %v, want full", compiled.Validity())
	}
}

func TestLoadSchemaDocumentMissingReferenceStrict(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="widget" type="ex:NoSuchType" xmlns:ex="http://example.com"/>
	</xs:schema>`)

	_, _, err := LoadSchemaDocument(doc, "widget.xsd", WithValidationMode(ModeStrict))
	if err == nil {
		t.Fatal("expected a strict-mode error for a missing type reference")
	}
}

func TestLoadSchemaDocumentLaxCollectsErrors(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="a" type="xs:string" minOccurs="5" maxOccurs="2"/>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "lax.xsd", WithValidationMode(ModeLax))
	if err != nil {
		t.Fatalf("lax mode should not abort the build: %v", err)
	}
	errs := globals.Compiled().AllErrors()
	if len(errs) == 0 {
		t.Fatal("expected at least one attached BuildError in lax mode")
	}
	found := false
	for _, e := range errs {
		if e.Code == "OccursOutOfOrder" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an OccursOutOfOrder error, got %+v", errs)
	}
}

func TestComplexTypeSequenceAndAttributes(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="person">
			<xs:complexType>
				<xs:sequence>
					<xs:element name="name" type="xs:string"/>
					<xs:element name="age" type="xs:integer" minOccurs="0"/>
				</xs:sequence>
				<xs:attribute name="id" type="xs:string" use="required"/>
			</xs:complexType>
		</xs:element>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "person.xsd")
	if err != nil {
		t.Fatalf("LoadSchemaDocument: %v", err)
	}
	compiled := globals.Compiled()
	el := compiled.Elements[QName{Namespace: "http://example.com", Local: "person"}]
	ct, ok := el.Type.(*ComplexType)
	if !ok {
		t.Fatalf("person type = %T, want *ComplexType", el.Type)
	}
	if ct.Content != ElementOnlyContent {
		t.Errorf("Content = %v, want ElementOnlyContent", ct.Content)
	}
	mg, ok := ct.Particle.(*ModelGroup)
	if !ok || mg.GroupKind != SequenceGroup || len(mg.Particles) != 2 {
		t.Fatalf("Particle = %+v, want a 2-particle sequence", ct.Particle)
	}
	if len(ct.Attributes) != 1 || ct.Attributes[0].Use != UseRequired {
		t.Fatalf("Attributes = %+v, want one required attribute", ct.Attributes)
	}
}

func TestInstanceValidatorValidAndInvalid(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="person">
			<xs:complexType>
				<xs:sequence>
					<xs:element name="name" type="xs:string"/>
				</xs:sequence>
				<xs:attribute name="id" type="xs:string" use="required"/>
			</xs:complexType>
		</xs:element>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "person.xsd")
	if err != nil {
		t.Fatalf("LoadSchemaDocument: %v", err)
	}
	compiled := globals.Compiled()
	validator := NewValidator(compiled)

	valid := mustDecode(t, `<person xmlns="http://example.com" id="p1"><name>Ada</name></person>`)
	if v := validator.Validate(valid); len(v) != 0 {
		t.Errorf("expected a valid instance to have no violations, got %+v", v)
	}

	missingAttr := mustDecode(t, `<person xmlns="http://example.com"><name>Ada</name></person>`)
	if v := validator.Validate(missingAttr); len(v) == 0 {
		t.Error("expected a violation for the missing required 'id' attribute")
	}

	wrongContent := mustDecode(t, `<person xmlns="http://example.com" id="p1"><nickname>Ada</nickname></person>`)
	if v := validator.Validate(wrongContent); len(v) == 0 {
		t.Error("expected a violation for content that doesn't match the declared model")
	}
}

func TestSubstitutionGroup(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="animal" type="xs:string" abstract="true"/>
		<xs:element name="dog" type="xs:string" substitutionGroup="animal"/>
		<xs:element name="zoo">
			<xs:complexType>
				<xs:sequence>
					<xs:element ref="animal" maxOccurs="unbounded"/>
				</xs:sequence>
			</xs:complexType>
		</xs:element>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "zoo.xsd")
	if err != nil {
		t.Fatalf("LoadSchemaDocument: %v", err)
	}
	compiled := globals.Compiled()
	animal := QName{Namespace: "http://example.com", Local: "animal"}
	members := compiled.SubstitutionGroups[animal]
	if len(members) != 1 || members[0].Name().Local != "dog" {
		t.Fatalf("SubstitutionGroups[animal] = %+v, want [dog]", members)
	}

	validator := NewValidator(compiled)
	instance := mustDecode(t, `<zoo xmlns="http://example.com"><dog/></zoo>`)
	if v := validator.Validate(instance); len(v) != 0 {
		t.Errorf("a substitution-group member should satisfy a ref to its head: %+v", v)
	}
}

func TestAttributeGroupWildcardMustBeLast(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:attributeGroup name="bad">
			<xs:anyAttribute processContents="lax"/>
			<xs:attribute name="extra" type="xs:string"/>
		</xs:attributeGroup>
		<xs:element name="usesIt">
			<xs:complexType>
				<xs:attributeGroup ref="bad"/>
			</xs:complexType>
		</xs:element>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "attrgroup.xsd", WithValidationMode(ModeLax))
	if err != nil {
		t.Fatalf("lax mode should not abort: %v", err)
	}
	errs := globals.Compiled().AllErrors()
	found := false
	for _, e := range errs {
		if e.Code == "AttributesAfterWildcard" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an AttributesAfterWildcard error, got %+v", errs)
	}
}

func TestDiagnosticConverterRendersBuildErrors(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="a" type="xs:string" minOccurs="5" maxOccurs="2"/>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "diag.xsd", WithValidationMode(ModeLax))
	if err != nil {
		t.Fatalf("lax mode should not abort: %v", err)
	}

	converter := NewDiagnosticConverter("diag.xsd", "")
	diags := converter.Convert(globals.Compiled().AllErrors())
	if len(diags) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
	formatter := &ErrorFormatter{Color: false}
	out := formatter.Format(diags[0], "")
	if !strings.Contains(out, diags[0].Code) {
		t.Errorf("formatted output %q does not contain the diagnostic code %q", out, diags[0].Code)
	}
}

// locationFetcher resolves each include/import location against a
// fixed table of inline XSD documents, for tests that don't want to touch
// the filesystem.
type locationFetcher struct {
	t    *testing.T
	docs map[string]string
}

func (f *locationFetcher) Fetch(location, baseURL string) (*ResourceHandle, error) {
	src, ok := f.docs[location]
	if !ok {
		f.t.Fatalf("locationFetcher: no document registered for %q", location)
	}
	return &ResourceHandle{Location: location, Doc: mustDecode(f.t, src)}, nil
}

func TestChameleonIncludeAbsorbsIncludingNamespace(t *testing.T) {
	fetcher := &locationFetcher{t: t, docs: map[string]string{
		"common.xsd": `<?xml version="1.0"?>
		<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
			<xs:element name="Widget" type="xs:string"/>
		</xs:schema>`,
	}}

	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:include schemaLocation="common.xsd"/>
		<xs:element name="uses" type="xs:string"/>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "root.xsd", WithResourceFetcher(fetcher))
	if err != nil {
		t.Fatalf("LoadSchemaDocument: %v", err)
	}
	widget := QName{Namespace: "http://example.com", Local: "Widget"}
	if _, ok := globals.Compiled().Lookup(KindElement, widget); !ok {
		t.Errorf("expected the chameleon-included element to register under the including schema's namespace %q", widget)
	}
}

func TestGlobalsCloneBuildsStructurallyEqualGraph(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="widget" type="xs:string"/>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "clone-src.xsd")
	if err != nil {
		t.Fatalf("LoadSchemaDocument: %v", err)
	}

	clone := globals.Clone()
	if err := clone.Build(); err != nil {
		t.Fatalf("clone.Build: %v", err)
	}

	want := QName{Namespace: "http://example.com", Local: "widget"}
	original := globals.Compiled()
	copied := clone.Compiled()
	if _, ok := original.Elements[want]; !ok {
		t.Fatal("expected original to contain 'widget'")
	}
	el, ok := copied.Elements[want]
	if !ok {
		t.Fatal("expected the clone to also contain 'widget' after Build")
	}
	if el.Name() != want {
		t.Errorf("clone's widget element has Name() = %v, want %v", el.Name(), want)
	}
}
