package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrResourceNotFound is returned by Read when no registered resource's
// URI exactly matches, or prefix-matches, the requested URI.
var ErrResourceNotFound = errors.New("resource not found")

// ResourceDefinition describes a resource's shape for resources/list.
type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContent is what a resource reader returns for resources/read.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ResourceReader reads the resource addressed by uri. uri may be the
// registered definition's own URI, or a longer URI for which the
// definition's URI is a prefix (e.g. a "file:///" provider reading
// "file:///sub/path.txt").
type ResourceReader func(ctx context.Context, uri string) (ResourceContent, error)

type resourceEntry struct {
	def    ResourceDefinition
	reader ResourceReader
}

// Resources is the resource registry.
type Resources struct {
	entries map[string]resourceEntry
	order   []string
}

// NewResources returns an empty resource registry.
func NewResources() *Resources {
	return &Resources{entries: make(map[string]resourceEntry)}
}

// Register adds or replaces the resource identified by def.URI.
func (r *Resources) Register(def ResourceDefinition, reader ResourceReader) {
	if _, exists := r.entries[def.URI]; !exists {
		r.order = append(r.order, def.URI)
	}
	r.entries[def.URI] = resourceEntry{def: def, reader: reader}
}

// List returns a snapshot of every registered resource definition, in
// registration order.
func (r *Resources) List() []ResourceDefinition {
	defs := make([]ResourceDefinition, 0, len(r.order))
	for _, uri := range r.order {
		defs = append(defs, r.entries[uri].def)
	}
	return defs
}

// Read resolves uri to a registered reader. Resolution tries an exact
// match first; failing that, the first registered definition (in
// registration order) whose URI is a prefix of uri is used. A request
// matching nothing fails with ErrResourceNotFound.
func (r *Resources) Read(ctx context.Context, uri string) (ResourceContent, error) {
	if entry, ok := r.entries[uri]; ok {
		return entry.reader(ctx, uri)
	}

	for _, registeredURI := range r.order {
		if strings.HasPrefix(uri, registeredURI) {
			return r.entries[registeredURI].reader(ctx, uri)
		}
	}

	return ResourceContent{}, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
}
