package xsd

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// XSDNamespace is the XML Schema namespace.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// XSINamespace is the XML Schema instance namespace (xsi:type, xsi:nil, ...).
const XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"

// XMLNamespace is the namespace bound to the built-in "xml" prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// QName is a pair (namespace-URI, local-name). An empty namespace is valid
// and distinct from "no namespace declared" — it means "no namespace".
type QName struct {
	Namespace string
	Local     string
}

// String renders the Clark-notation form: "{ns}local", or just "local"
// when the namespace is empty.
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return fmt.Sprintf("{%s}%s", q.Namespace, q.Local)
}

// IsZero reports whether q is the zero QName (empty namespace and empty
// local name).
func (q QName) IsZero() bool {
	return q.Namespace == "" && q.Local == ""
}

// NamespaceMap tracks the prefix -> namespace-URI bindings in scope for a
// schema document, plus the default (unprefixed) namespace.
type NamespaceMap struct {
	prefixes map[string]string
	Default  string
}

// NewNamespaceMap builds an empty map.
func NewNamespaceMap() *NamespaceMap {
	return &NamespaceMap{prefixes: make(map[string]string)}
}

// Bind records prefix -> uri. An empty prefix sets the default namespace.
func (m *NamespaceMap) Bind(prefix, uri string) {
	if prefix == "" {
		m.Default = uri
		return
	}
	m.prefixes[prefix] = uri
}

// Resolve returns the namespace URI bound to prefix, or "" if unbound.
// "xml" is always bound to XMLNamespace per the XML Names recommendation.
func (m *NamespaceMap) Resolve(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNamespace, true
	}
	uri, ok := m.prefixes[prefix]
	return uri, ok
}

// ParseQName expands a (possibly prefixed) lexical QName. The prefixes
// "xs" and "xsd" always expand to the XSD namespace without consulting m;
// any other prefix is resolved through m. An unprefixed name takes m's
// default namespace when one is bound, and defaultNS (the schema's target
// namespace at every call site, `ref=` included) otherwise.
func ParseQName(m *NamespaceMap, name string, defaultNS string) QName {
	if name == "" {
		return QName{}
	}
	parts := strings.SplitN(name, ":", 2)
	if len(parts) == 2 {
		prefix, local := parts[0], parts[1]
		if prefix == "xs" || prefix == "xsd" {
			return QName{Namespace: XSDNamespace, Local: local}
		}
		if m != nil {
			if uri, ok := m.Resolve(prefix); ok {
				return QName{Namespace: uri, Local: local}
			}
		}
		// Unresolvable prefix: keep as an opaque local name so the caller
		// can surface a Reference error rather than silently mis-binding.
		return QName{Local: name}
	}
	if m != nil && m.Default != "" {
		return QName{Namespace: m.Default, Local: name}
	}
	return QName{Namespace: defaultNS, Local: name}
}

// ParseNamespaceBindings reads the xmlns/xmlns:prefix declarations on a
// <xs:schema> root element into a NamespaceMap.
func ParseNamespaceBindings(root xmldom.Element) *NamespaceMap {
	m := NewNamespaceMap()
	if root == nil {
		return m
	}
	attrs := root.Attributes()
	for i := uint(0); i < attrs.Length(); i++ {
		attr := attrs.Item(i)
		if attr == nil {
			continue
		}
		name := string(attr.NodeName())
		switch {
		case name == "xmlns":
			m.Bind("", string(attr.NodeValue()))
		case strings.HasPrefix(name, "xmlns:"):
			m.Bind(strings.TrimPrefix(name, "xmlns:"), string(attr.NodeValue()))
		}
	}
	return m
}
