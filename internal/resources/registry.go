/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - MCP Resources
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package resources implements the read-only MCP resources
package resources

import (
	"context"
	"fmt"
	"sort"

	"kiosk-assistant/internal/mcp"
)

// Handler is a function that reads a resource
type Handler func(ctx context.Context) (mcp.ResourceContent, error)

// Resource represents a registered MCP resource
type Resource struct {
	Definition mcp.Resource
	Handler    Handler
}

// Registry manages available MCP resources
type Registry struct {
	resources map[string]Resource
}

// NewRegistry creates a new resource registry
func NewRegistry() *Registry {
	return &Registry{
		resources: make(map[string]Resource),
	}
}

// Register adds a resource under its URI
func (r *Registry) Register(resource Resource) {
	r.resources[resource.Definition.URI] = resource
}

// List returns all registered resource definitions sorted by URI
func (r *Registry) List() []mcp.Resource {
	list := make([]mcp.Resource, 0, len(r.resources))
	for _, resource := range r.resources {
		list = append(list, resource.Definition)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].URI < list[j].URI })
	return list
}

// Read executes the handler registered for uri
func (r *Registry) Read(ctx context.Context, uri string) (mcp.ResourceContent, error) {
	resource, exists := r.resources[uri]
	if !exists {
		return mcp.ResourceContent{}, fmt.Errorf("resource not found: %s", uri)
	}
	return resource.Handler(ctx)
}
