package xsd

import (
	"strings"

	"github.com/agentflare-ai/go-xmldom"
)

// ProcessContentsMode is the xs:any/xs:anyAttribute processContents value.
type ProcessContentsMode string

const (
	ProcessStrict   ProcessContentsMode = "strict"
	ProcessLax      ProcessContentsMode = "lax"
	ProcessSkip     ProcessContentsMode = "skip"
)

// NamespaceConstraint is a wildcard's namespace attribute, parsed into its
// ##any / ##other / ##targetNamespace / ##local / explicit-list forms per
// XSD 1.0 §3.10.1.
type NamespaceConstraint struct {
	Any             bool
	Other           bool
	TargetNamespace string // the schema's target namespace, for ##other / ##targetNamespace
	Namespaces      map[string]bool
	Local           bool // ##local as one of the explicit tokens
}

// ParseNamespaceConstraint parses a wildcard's namespace="..." value.
func ParseNamespaceConstraint(value, targetNamespace string) *NamespaceConstraint {
	c := &NamespaceConstraint{TargetNamespace: targetNamespace, Namespaces: make(map[string]bool)}
	value = strings.TrimSpace(value)
	if value == "" || value == "##any" {
		c.Any = true
		return c
	}
	if value == "##other" {
		c.Other = true
		return c
	}
	for _, tok := range strings.Fields(value) {
		switch tok {
		case "##targetNamespace":
			c.Namespaces[targetNamespace] = true
		case "##local":
			c.Local = true
		default:
			c.Namespaces[tok] = true
		}
	}
	return c
}

// Matches reports whether namespace satisfies the constraint.
func (c *NamespaceConstraint) Matches(namespace string) bool {
	if c.Any {
		return true
	}
	if c.Other {
		return namespace != "" && namespace != c.TargetNamespace
	}
	if namespace == "" && c.Local {
		return true
	}
	return c.Namespaces[namespace]
}

// Wildcard is an xs:any (element content) or xs:anyAttribute particle.
type Wildcard struct {
	Ref

	Constraint      *NamespaceConstraint
	ProcessContents ProcessContentsMode
	minOcc          int
	maxOcc          int
}

func (w *Wildcard) MinOccurs() int { return w.minOcc }
func (w *Wildcard) MaxOccurs() int { return w.maxOcc }

func buildInlineWildcard(elem xmldom.Element, schema *Schema, parent Component) *Wildcard {
	w := &Wildcard{Ref: newRef(KindWildcard, schema, elem, parent), minOcc: 1, maxOcc: 1}
	w.minOcc = parseOccurs(elem, "minOccurs", 1)
	w.maxOcc = parseOccurs(elem, "maxOccurs", 1)
	checkOccurs(w, w.minOcc, w.maxOcc)
	pc := string(elem.GetAttribute("processContents"))
	if pc == "" {
		pc = "strict"
	}
	w.ProcessContents = ProcessContentsMode(pc)
	ns := schema.TargetNamespace
	w.Constraint = ParseNamespaceConstraint(string(elem.GetAttribute("namespace")), ns)
	return w
}
