// Package jsonapi shapes REST payloads after the JSON:API resource format.
//
// Responses carry typed resource objects with attributes only; pagination
// metadata and links ride alongside the data in the endpoint's envelope.
package jsonapi

// Resource is a typed resource object.
// See: https://jsonapi.org/format/#document-resource-objects
type Resource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes any    `json:"attributes"`
}

// NewResource builds a resource from its type, identifier and attributes.
func NewResource(resourceType, id string, attrs any) *Resource {
	return &Resource{
		Type:       resourceType,
		ID:         id,
		Attributes: attrs,
	}
}

// Meta carries non-standard information about a response, such as row counts.
type Meta map[string]any

// Links holds the pagination links for a collection response. Empty links
// are omitted from the output.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}
