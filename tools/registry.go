// Package tools provides the operation registry.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Name normalization hidden
// - The set is frozen at construction; there is no way to add or remove tools

package tools

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is an immutable set of tools keyed by name.
// Safe for concurrent use without locking because nothing mutates it after NewRegistry.
type Registry struct {
	tools map[string]Tool
	names []string
}

// NewRegistry freezes the given tools into a registry.
// Returns an error for empty or duplicate names.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool, len(tools)),
		names: make([]string, 0, len(tools)),
	}

	for _, tool := range tools {
		name := tool.Metadata().Name
		key := normalizeName(name)
		if key == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.tools[key]; exists {
			return nil, fmt.Errorf("tool '%s' already registered", name)
		}
		r.tools[key] = tool
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r, nil
}

// Lookup returns a tool by name. Model output is untrusted, so the name is
// trimmed of whitespace, quotes and backticks and compared case-insensitively.
func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, exists := r.tools[normalizeName(name)]
	return tool, exists
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// List returns metadata for all registered tools, sorted by name.
func (r *Registry) List() []ToolMetadata {
	metadata := make([]ToolMetadata, 0, len(r.names))
	for _, name := range r.names {
		metadata = append(metadata, r.tools[normalizeName(name)].Metadata())
	}
	return metadata
}

// Description returns a formatted description of all tools for LLM prompts.
func (r *Registry) Description() string {
	var descriptions []string
	for _, meta := range r.List() {
		var params []string
		for _, p := range meta.Parameters {
			required := "optional"
			if p.Required {
				required = "required"
			}
			params = append(params, fmt.Sprintf("  - %s (%s): %s [%s]",
				p.Name, p.ParamType, p.Description, required))
		}

		entry := fmt.Sprintf("%s: %s", meta.Name, meta.Description)
		if len(params) > 0 {
			entry += "\n" + strings.Join(params, "\n")
		}
		descriptions = append(descriptions, entry)
	}

	return strings.Join(descriptions, "\n\n")
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, "`\"'")
	return strings.ToLower(strings.TrimSpace(name))
}
