package command

import (
	"sort"
	"strings"
)

// Field defines a command argument.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Required bool
}

// Command defines one console command.
type Command struct {
	Name    string
	Summary string
	Fields  []Field
}

// Usage renders "name key=<prompt> ...".
func (c Command) Usage() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, f := range c.Fields {
		b.WriteString(" ")
		if !f.Required {
			b.WriteString("[")
		}
		b.WriteString(f.Name + "=<" + f.Prompt + ">")
		if !f.Required {
			b.WriteString("]")
		}
	}
	return b.String()
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

// Canonicalize rewrites alias keys to their field names.
func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

// Missing lists required fields that have no value.
func (p Params) Missing(fields []Field) []Field {
	var out []Field
	for _, field := range fields {
		if field.Required && strings.TrimSpace(p.Get(field.Name)) == "" {
			out = append(out, field)
		}
	}
	return out
}

// Names returns the sorted command names of a registry.
func Names(commands map[string]Command) []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
