package xsd

import "github.com/agentflare-ai/go-xmldom"

// Notation is a <xs:notation> global declaration.
type Notation struct {
	Ref

	PublicID string
	SystemID string
}

func newEmptyNotation(schema *Schema, elem xmldom.Element, parent Component) Component {
	n := &Notation{Ref: newRef(KindNotation, schema, elem, parent)}
	if name := string(elem.GetAttribute("name")); name != "" {
		n.setName(QName{Namespace: schema.TargetNamespace, Local: name})
	}
	return n
}

func buildNotation(elem xmldom.Element, schema *Schema, parent Component, instance Component) error {
	n := instance.(*Notation)
	n.state = StateBuilding
	n.PublicID = string(elem.GetAttribute("public"))
	n.SystemID = string(elem.GetAttribute("system"))
	n.state = StateBuilt
	return nil
}
