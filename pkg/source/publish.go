package source

import (
	"fmt"

	"igsource/pkg/dateformat"
	"igsource/pkg/nodes"
	"igsource/pkg/schema"
)

// FormattedDateField is the computed date field added to the node type
const FormattedDateField = "formattedDate"

// SchemaRegistry receives type declarations and resolvers
type SchemaRegistry interface {
	CreateTypes(defs ...*schema.TypeDef) error
	CreateResolvers(typeName string, resolvers map[string]schema.FieldResolver) error
}

// TypeDefinition declares the shape of nodes of typeName
func TypeDefinition(typeName string) *schema.TypeDef {
	return &schema.TypeDef{
		Name:       typeName,
		Interfaces: []string{"Node"},
		Fields: []schema.Field{
			{Name: "id", Type: "String!"},
			{Name: "timestamp", Type: "Date", DateFormat: true},
			{Name: "url", Type: "String!"},
			{Name: "permalink", Type: "String!"},
			{Name: "caption", Type: "String"},
			{Name: "username", Type: "String!"},
			{Name: "thumbnailUrl", Type: "String"},
			{Name: "mediaType", Type: "String!"},
			{Name: LocalFileField, Type: "File", LinkFrom: "fields." + LocalFileField},
		},
	}
}

// Publisher declares the node type and its computed fields
type Publisher struct {
	registry SchemaRegistry
	typeName string
	locale   string
}

// NewPublisher creates a publisher for typeName formatting dates for locale
func NewPublisher(registry SchemaRegistry, typeName, locale string) *Publisher {
	return &Publisher{registry: registry, typeName: typeName, locale: locale}
}

// Publish registers the type and the formattedDate resolver. Publishing
// again replaces the previous declaration.
func (p *Publisher) Publish() error {
	if err := p.registry.CreateTypes(TypeDefinition(p.typeName)); err != nil {
		return fmt.Errorf("publish schema: %w", err)
	}

	locale := p.locale
	err := p.registry.CreateResolvers(p.typeName, map[string]schema.FieldResolver{
		FormattedDateField: {
			Type: "String",
			Resolve: func(node *nodes.ContentNode) (interface{}, error) {
				return dateformat.FormattedDate(node.Timestamp, locale), nil
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish resolvers: %w", err)
	}
	return nil
}
