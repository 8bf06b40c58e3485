package xsd

import (
	"bytes"
	"testing"

	"github.com/agentflare-ai/go-xmldom"
)

func TestQNameString(t *testing.T) {
	tests := []struct {
		name string
		q    QName
		want string
	}{
		{"no namespace", QName{Local: "foo"}, "foo"},
		{"namespaced", QName{Namespace: XSDNamespace, Local: "string"}, "{http://www.w3.org/2001/XMLSchema}string"},
		{"zero value", QName{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.q.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestQNameIsZero(t *testing.T) {
	if !(QName{}).IsZero() {
		t.Error("zero QName should report IsZero")
	}
	if (QName{Local: "x"}).IsZero() {
		t.Error("QName with a local name should not report IsZero")
	}
}

func TestNamespaceMapBindResolve(t *testing.T) {
	m := NewNamespaceMap()
	m.Bind("ex", "http://example.com")
	m.Bind("", "http://example.com/default")

	if uri, ok := m.Resolve("ex"); !ok || uri != "http://example.com" {
		t.Errorf("Resolve(ex) = %q, %v", uri, ok)
	}
	if uri, ok := m.Resolve("xml"); !ok || uri != XMLNamespace {
		t.Errorf("Resolve(xml) = %q, %v, want the built-in XML namespace", uri, ok)
	}
	if _, ok := m.Resolve("missing"); ok {
		t.Error("Resolve on an unbound prefix should report false")
	}
	if m.Default != "http://example.com/default" {
		t.Errorf("Default = %q", m.Default)
	}
}

func TestParseQName(t *testing.T) {
	m := NewNamespaceMap()
	m.Bind("ex", "http://example.com")

	tests := []struct {
		name       string
		lexical    string
		defaultNS  string
		wantNS     string
		wantLocal  string
	}{
		{"xs prefix always XSD", "xs:string", "http://example.com", XSDNamespace, "string"},
		{"bound prefix", "ex:widget", "", "http://example.com", "widget"},
		{"unprefixed falls back to default NS", "widget", "http://example.com", "http://example.com", "widget"},
		{"unresolvable prefix kept opaque", "zz:widget", "", "", "zz:widget"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseQName(m, tc.lexical, tc.defaultNS)
			if got.Namespace != tc.wantNS || got.Local != tc.wantLocal {
				t.Errorf("ParseQName(%q) = %+v, want {%q %q}", tc.lexical, got, tc.wantNS, tc.wantLocal)
			}
		})
	}
}

func TestParseNamespaceBindings(t *testing.T) {
	doc, err := xmldom.Decode(bytes.NewReader([]byte(`<?xml version="1.0"?>
	<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
	           xmlns:ex="http://example.com"
	           xmlns="http://example.com/default"
	           targetNamespace="http://example.com">
	</xs:schema>`)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	m := ParseNamespaceBindings(doc.DocumentElement())
	if uri, ok := m.Resolve("ex"); !ok || uri != "http://example.com" {
		t.Errorf("ex prefix = %q, %v", uri, ok)
	}
	if uri, ok := m.Resolve("xs"); !ok || uri != XSDNamespace {
		t.Errorf("xs prefix = %q, %v", uri, ok)
	}
	if m.Default != "http://example.com/default" {
		t.Errorf("Default = %q", m.Default)
	}
}
