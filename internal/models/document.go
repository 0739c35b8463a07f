package models

import (
	"encoding/json"

	"github.com/aleister1102/specwatch/internal/common"
)

// SpecDocument is an OpenAPI-shaped document modeled as a recursive generic
// map. The diff logic never assumes a rigid schema: absent sections read as
// empty maps and unknown keys are ignored.
type SpecDocument map[string]interface{}

// ParseSpecDocument decodes raw JSON bytes into a SpecDocument.
func ParseSpecDocument(data []byte) (SpecDocument, error) {
	var doc SpecDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, common.WrapError(err, "failed to parse specification document")
	}
	return doc, nil
}

// subMap returns the named child as a map, or an empty map when the key is
// missing or has an unexpected shape.
func (d SpecDocument) subMap(key string) map[string]interface{} {
	if d == nil {
		return map[string]interface{}{}
	}
	if m, ok := d[key].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// Info returns the document's info object.
func (d SpecDocument) Info() map[string]interface{} {
	return d.subMap("info")
}

// Version returns info.version, or "" when absent.
func (d SpecDocument) Version() string {
	if v, ok := d.Info()["version"].(string); ok {
		return v
	}
	return ""
}

// Title returns info.title, or "" when absent.
func (d SpecDocument) Title() string {
	if t, ok := d.Info()["title"].(string); ok {
		return t
	}
	return ""
}

// Paths returns the paths map of the document.
func (d SpecDocument) Paths() map[string]interface{} {
	return d.subMap("paths")
}

// Schemas returns components.schemas of the document.
func (d SpecDocument) Schemas() map[string]interface{} {
	components := d.subMap("components")
	if schemas, ok := components["schemas"].(map[string]interface{}); ok {
		return schemas
	}
	return map[string]interface{}{}
}

// EndpointCount counts operations across all paths (one per HTTP method).
func (d SpecDocument) EndpointCount() int {
	count := 0
	for _, item := range d.Paths() {
		pathItem, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for method := range pathItem {
			if IsHTTPMethod(method) {
				count++
			}
		}
	}
	return count
}

// SchemaCount counts named schemas under components.schemas.
func (d SpecDocument) SchemaCount() int {
	return len(d.Schemas())
}

// CanonicalJSON serializes the document with sorted keys so identical
// documents always produce identical bytes.
func (d SpecDocument) CanonicalJSON() ([]byte, error) {
	// encoding/json sorts map keys, which is exactly the property needed.
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, common.WrapError(err, "failed to serialize specification document")
	}
	return data, nil
}

// httpMethods are the operation keys recognized inside a path item.
var httpMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"options": {},
	"head":    {},
	"patch":   {},
	"trace":   {},
}

// IsHTTPMethod reports whether a path-item key names an operation.
func IsHTTPMethod(key string) bool {
	_, ok := httpMethods[key]
	return ok
}
