package registry

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrPromptNotFound is returned by Get when name has no registered prompt.
var ErrPromptNotFound = errors.New("prompt not found")

// PromptVariable describes one template variable a prompt accepts.
type PromptVariable struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptDefinition describes a prompt's shape for prompts/list.
type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Variables   []PromptVariable `json:"variables,omitempty"`
}

// PromptContent is what Get returns for prompts/get.
type PromptContent struct {
	Name    string
	Content string
}

type promptEntry struct {
	def      PromptDefinition
	template string
}

// Prompts is the prompt registry.
type Prompts struct {
	entries map[string]promptEntry
	order   []string
}

// NewPrompts returns an empty prompt registry.
func NewPrompts() *Prompts {
	return &Prompts{entries: make(map[string]promptEntry)}
}

// Register adds or replaces the prompt identified by def.Name.
func (p *Prompts) Register(def PromptDefinition, template string) {
	if _, exists := p.entries[def.Name]; !exists {
		p.order = append(p.order, def.Name)
	}
	p.entries[def.Name] = promptEntry{def: def, template: template}
}

// List returns a snapshot of every registered prompt definition, in
// registration order.
func (p *Prompts) List() []PromptDefinition {
	defs := make([]PromptDefinition, 0, len(p.order))
	for _, name := range p.order {
		defs = append(defs, p.entries[name].def)
	}
	return defs
}

// placeholderPattern matches a mustache-style {{identifier}} placeholder.
// No escaping, no nested expansion, no conditionals are supported — every
// occurrence of a matched identifier is replaced independently.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Get renders the named prompt's template, substituting every
// {{identifier}} occurrence with the string form of variables[identifier],
// or the empty string if that key is absent.
func (p *Prompts) Get(name string, variables map[string]any) (PromptContent, error) {
	entry, ok := p.entries[name]
	if !ok {
		return PromptContent{}, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}

	rendered := placeholderPattern.ReplaceAllStringFunc(entry.template, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		val, ok := variables[key]
		if !ok {
			return ""
		}
		return fmt.Sprintf("%v", val)
	})

	return PromptContent{Name: name, Content: rendered}, nil
}
