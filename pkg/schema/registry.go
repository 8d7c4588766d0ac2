package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"igsource/pkg/nodes"
)

// FileLookup resolves linked file nodes
type FileLookup interface {
	GetFileNode(id string) (*nodes.FileNode, bool)
}

// ResolvedField is one field value of a resolved node
type ResolvedField struct {
	Name  string
	Value interface{}
}

// Registry holds type declarations and field resolvers. Declaring a type
// again replaces the earlier declaration.
type Registry struct {
	mu        sync.RWMutex
	types     map[string]*TypeDef
	order     []string
	resolvers map[string]map[string]FieldResolver
	resOrder  map[string][]string
	files     FileLookup
}

// NewRegistry creates an empty registry; files may be nil when no link
// fields are resolved
func NewRegistry(files FileLookup) *Registry {
	return &Registry{
		types:     make(map[string]*TypeDef),
		resolvers: make(map[string]map[string]FieldResolver),
		resOrder:  make(map[string][]string),
		files:     files,
	}
}

// CreateTypes declares or replaces types
func (r *Registry) CreateTypes(defs ...*TypeDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, def := range defs {
		if def == nil || def.Name == "" {
			return fmt.Errorf("create types: type name is required")
		}
		seen := make(map[string]struct{}, len(def.Fields))
		for _, f := range def.Fields {
			if f.Name == "" || f.Type == "" {
				return fmt.Errorf("create types: %s has a field without name or type", def.Name)
			}
			if _, dup := seen[f.Name]; dup {
				return fmt.Errorf("create types: %s declares %s twice", def.Name, f.Name)
			}
			seen[f.Name] = struct{}{}
		}

		c := *def
		c.Fields = append([]Field(nil), def.Fields...)
		c.Interfaces = append([]string(nil), def.Interfaces...)
		if _, exists := r.types[def.Name]; !exists {
			r.order = append(r.order, def.Name)
		}
		r.types[def.Name] = &c
	}
	return nil
}

// CreateResolvers adds computed fields to typeName, replacing resolvers with
// the same field name
func (r *Registry) CreateResolvers(typeName string, resolvers map[string]FieldResolver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if typeName == "" {
		return fmt.Errorf("create resolvers: type name is required")
	}

	table, ok := r.resolvers[typeName]
	if !ok {
		table = make(map[string]FieldResolver)
		r.resolvers[typeName] = table
	}

	names := make([]string, 0, len(resolvers))
	for name := range resolvers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := resolvers[name]
		if res.Resolve == nil {
			return fmt.Errorf("create resolvers: %s.%s has no resolve function", typeName, name)
		}
		if _, exists := table[name]; !exists {
			r.resOrder[typeName] = append(r.resOrder[typeName], name)
		}
		table[name] = res
	}
	return nil
}

// Type returns a copy of the declaration of name
func (r *Registry) Type(name string) (*TypeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.types[name]
	if !ok {
		return nil, false
	}
	c := *def
	c.Fields = append([]Field(nil), def.Fields...)
	return &c, true
}

// Types returns the declared type names in declaration order
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// HasResolver reports whether typeName has a computed field named field
func (r *Registry) HasResolver(typeName, field string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.resolvers[typeName][field]
	return ok
}

// SDL renders every declared type, including computed fields
func (r *Registry) SDL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for i, name := range r.order {
		if i > 0 {
			b.WriteString("\n")
		}
		def := r.types[name]

		b.WriteString("type ")
		b.WriteString(def.Name)
		if len(def.Interfaces) > 0 {
			b.WriteString(" implements ")
			b.WriteString(strings.Join(def.Interfaces, " & "))
		}
		b.WriteString(" {\n")
		for _, f := range def.Fields {
			b.WriteString("  ")
			b.WriteString(f.sdl())
			b.WriteString("\n")
		}
		for _, field := range r.resOrder[name] {
			if _, declared := def.Field(field); declared {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", field, r.resolvers[name][field].Type)
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// WriteSDL writes the rendered SDL to path
func (r *Registry) WriteSDL(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create schema directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(r.SDL()), 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}

// Resolve returns the value of field for node of typeName. Computed fields
// run their resolver; link fields return the linked file node or nil;
// other fields read the node's own value.
func (r *Registry) Resolve(typeName, field string, node *nodes.ContentNode) (interface{}, error) {
	r.mu.RLock()
	def, declared := r.types[typeName]
	res, computed := r.resolvers[typeName][field]
	files := r.files
	r.mu.RUnlock()

	if computed {
		return res.Resolve(node)
	}
	if !declared {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}

	f, ok := def.Field(field)
	if !ok {
		return nil, fmt.Errorf("type %s has no field %q", typeName, field)
	}

	values, err := nodeValues(node)
	if err != nil {
		return nil, err
	}

	if f.LinkFrom == "" {
		return lookupPath(values, f.Name), nil
	}

	id, _ := lookupPath(values, f.LinkFrom).(string)
	if id == "" || files == nil {
		return nil, nil
	}
	file, ok := files.GetFileNode(id)
	if !ok {
		return nil, nil
	}
	return file, nil
}

// ResolveAll resolves every declared and computed field of typeName for node
func (r *Registry) ResolveAll(typeName string, node *nodes.ContentNode) ([]ResolvedField, error) {
	r.mu.RLock()
	def, ok := r.types[typeName]
	var names []string
	if ok {
		for _, f := range def.Fields {
			names = append(names, f.Name)
		}
		for _, field := range r.resOrder[typeName] {
			if _, declared := def.Field(field); !declared {
				names = append(names, field)
			}
		}
	}
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown type %q", typeName)
	}

	out := make([]ResolvedField, 0, len(names))
	for _, name := range names {
		v, err := r.Resolve(typeName, name, node)
		if err != nil {
			return nil, fmt.Errorf("resolve %s.%s: %w", typeName, name, err)
		}
		out = append(out, ResolvedField{Name: name, Value: v})
	}
	return out, nil
}

func nodeValues(node *nodes.ContentNode) (map[string]interface{}, error) {
	if node == nil {
		return nil, fmt.Errorf("resolve: nil node")
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	var values map[string]interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	return values, nil
}

func lookupPath(values map[string]interface{}, path string) interface{} {
	var current interface{} = values
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}
