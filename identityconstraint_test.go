package xsd

import "testing"

func TestKeyrefResolvesToNamedKey(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="root">
			<xs:complexType>
				<xs:sequence>
					<xs:element name="item" minOccurs="0" maxOccurs="unbounded">
						<xs:complexType>
							<xs:attribute name="id" type="xs:string"/>
						</xs:complexType>
					</xs:element>
					<xs:element name="ref" minOccurs="0" maxOccurs="unbounded">
						<xs:complexType>
							<xs:attribute name="itemId" type="xs:string"/>
						</xs:complexType>
					</xs:element>
				</xs:sequence>
			</xs:complexType>
			<xs:key name="itemKey">
				<xs:selector xpath="item"/>
				<xs:field xpath="@id"/>
			</xs:key>
			<xs:keyref name="itemRef" refer="itemKey">
				<xs:selector xpath="ref"/>
				<xs:field xpath="@itemId"/>
			</xs:keyref>
		</xs:element>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "keyref.xsd")
	if err != nil {
		t.Fatalf("LoadSchemaDocument: %v", err)
	}

	compiled := globals.Compiled()
	keyrefQName := QName{Namespace: "http://example.com", Local: "itemRef"}
	keyref, ok := compiled.Constraints[keyrefQName]
	if !ok {
		t.Fatalf("expected itemRef to be registered in CompiledSchema.Constraints, got %+v", compiled.Constraints)
	}
	if keyref.ConstraintKind != ICKeyRef {
		t.Fatalf("itemRef.ConstraintKind = %v, want keyref", keyref.ConstraintKind)
	}
	if keyref.Refers == nil || keyref.Refers.Name().Local != "itemKey" {
		t.Fatalf("itemRef.Refers = %+v, want resolved to itemKey", keyref.Refers)
	}
}

func TestKeyrefToUndeclaredConstraintErrors(t *testing.T) {
	doc := mustDecode(t, `<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://example.com">
		<xs:element name="root" type="xs:string">
			<xs:keyref name="dangling" refer="noSuchKey">
				<xs:selector xpath="item"/>
				<xs:field xpath="@id"/>
			</xs:keyref>
		</xs:element>
	</xs:schema>`)

	globals, _, err := LoadSchemaDocument(doc, "dangling.xsd", WithValidationMode(ModeLax))
	if err != nil {
		t.Fatalf("lax mode should not abort: %v", err)
	}
	found := false
	for _, e := range globals.Compiled().AllErrors() {
		if e.Code == "UnresolvedKeyref" {
			found = true
		}
	}
	if !found {
		t.Error("expected an UnresolvedKeyref error for a keyref with no matching key/unique")
	}
}
