package schema

import (
	"fmt"
	"strings"

	"igsource/pkg/nodes"
)

// Field is one field of a declared type
type Field struct {
	Name string
	Type string
	// DateFormat marks a date field that accepts formatting arguments
	DateFormat bool
	// LinkFrom names the node path holding the id of a linked node
	LinkFrom string
}

// TypeDef is a declared object type
type TypeDef struct {
	Name       string
	Interfaces []string
	Fields     []Field
}

// Field returns the field named name
func (t *TypeDef) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Resolver computes a field value for a node on demand
type Resolver func(node *nodes.ContentNode) (interface{}, error)

// FieldResolver declares a computed field
type FieldResolver struct {
	Type    string
	Resolve Resolver
}

func (f Field) sdl() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", f.Name, f.Type)
	if f.DateFormat {
		b.WriteString(" @dateformat")
	}
	if f.LinkFrom != "" {
		fmt.Fprintf(&b, " @link(from: %q)", f.LinkFrom)
	}
	return b.String()
}
