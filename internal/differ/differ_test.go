package differ

import (
	"encoding/json"
	"testing"

	"github.com/aleister1102/specwatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) models.SpecDocument {
	t.Helper()
	doc, err := models.ParseSpecDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

func baseDoc(t *testing.T) models.SpecDocument {
	return mustParse(t, `{
		"openapi": "3.0.0",
		"info": {"title": "Petstore", "version": "1.0.0"},
		"paths": {
			"/pets": {
				"get": {
					"parameters": [
						{"name": "limit", "in": "query", "required": false, "schema": {"type": "integer"}}
					],
					"responses": {
						"200": {
							"description": "ok",
							"content": {"application/json": {"schema": {"type": "array", "items": {"type": "object"}}}}
						}
					}
				}
			}
		},
		"components": {
			"schemas": {
				"Pet": {
					"type": "object",
					"required": ["id"],
					"properties": {
						"id": {"type": "integer"},
						"name": {"type": "string"}
					}
				}
			}
		}
	}`)
}

func TestDetectChanges_IdenticalDocuments(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)

	cs := d.DetectChanges(previous, current, "target-1")

	assert.False(t, cs.HasChanges())
	assert.Equal(t, 0, cs.BreakingCount())
}

func TestDetectChanges_NilPreviousEstablishesBaseline(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())

	cs := d.DetectChanges(nil, baseDoc(t), "target-1")

	assert.False(t, cs.HasChanges())
}

func TestDetectChanges_PathAdded(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	current["paths"].(map[string]interface{})["/users"] = map[string]interface{}{
		"get": map[string]interface{}{},
	}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	change := cs.Changes[0]
	assert.Equal(t, models.ChangeAdded, change.Kind)
	assert.Equal(t, models.CategoryPath, change.Category)
	assert.Equal(t, "/users", change.Location)
	assert.False(t, change.Breaking)
}

func TestDetectChanges_PathRemovedIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	delete(current["paths"].(map[string]interface{}), "/pets")

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, models.ChangeRemoved, cs.Changes[0].Kind)
	assert.Equal(t, "/pets", cs.Changes[0].Location)
	assert.True(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_OperationAddedAndRemoved(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	pets := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})
	delete(pets, "get")
	pets["post"] = map[string]interface{}{}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 2)
	byLocation := make(map[string]models.Change)
	for _, c := range cs.Changes {
		byLocation[c.Location] = c
	}

	removed := byLocation["/pets/get"]
	assert.Equal(t, models.ChangeRemoved, removed.Kind)
	assert.True(t, removed.Breaking)

	added := byLocation["/pets/post"]
	assert.Equal(t, models.ChangeAdded, added.Kind)
	assert.False(t, added.Breaking)
}

func TestDetectChanges_RequiredParameterAddedIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["parameters"] = append(getOp["parameters"].([]interface{}), map[string]interface{}{
		"name": "tenant", "in": "header", "required": true,
		"schema": map[string]interface{}{"type": "string"},
	})

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	change := cs.Changes[0]
	assert.Equal(t, models.ChangeAdded, change.Kind)
	assert.Equal(t, models.CategoryParameter, change.Category)
	assert.Equal(t, "/pets/get/parameters/header:tenant", change.Location)
	assert.True(t, change.Breaking)
}

func TestDetectChanges_OptionalParameterAddedIsNotBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["parameters"] = append(getOp["parameters"].([]interface{}), map[string]interface{}{
		"name": "filter", "in": "query", "required": false,
		"schema": map[string]interface{}{"type": "string"},
	})

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.False(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_ParameterBecameRequiredIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["parameters"].([]interface{})[0].(map[string]interface{})["required"] = true

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	change := cs.Changes[0]
	assert.Equal(t, models.ChangeModified, change.Kind)
	assert.True(t, change.Breaking)
	assert.Equal(t, "became required", change.Detail)
}

func TestDetectChanges_ParameterTypeChangedIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["parameters"].([]interface{})[0].(map[string]interface{})["schema"] = map[string]interface{}{"type": "string"}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.True(t, cs.Changes[0].Breaking)
	assert.Equal(t, "type changed", cs.Changes[0].Detail)
}

func TestDetectChanges_ResponseRemovedIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["responses"] = map[string]interface{}{}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "/pets/get/responses/200", cs.Changes[0].Location)
	assert.True(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_ResponseAddedIsNotBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["responses"].(map[string]interface{})["404"] = map[string]interface{}{"description": "not found"}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, models.ChangeAdded, cs.Changes[0].Kind)
	assert.False(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_RequiredFieldAddedToSchemaIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	pet := current["components"].(map[string]interface{})["schemas"].(map[string]interface{})["Pet"].(map[string]interface{})
	pet["required"] = []interface{}{"id", "email"}
	pet["properties"].(map[string]interface{})["email"] = map[string]interface{}{"type": "string"}

	cs := d.DetectChanges(previous, current, "target-1")

	byLocation := make(map[string]models.Change)
	for _, c := range cs.Changes {
		byLocation[c.Location] = c
	}

	requiredChange, ok := byLocation["/components/schemas/Pet/required/email"]
	require.True(t, ok, "expected a required-field change, got %v", cs.Changes)
	assert.True(t, requiredChange.Breaking)

	propertyChange, ok := byLocation["/components/schemas/Pet/properties/email"]
	require.True(t, ok)
	assert.Equal(t, models.ChangeAdded, propertyChange.Kind)
	assert.False(t, propertyChange.Breaking)
}

func TestDetectChanges_RequiredFieldRemovedIsNotBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	pet := current["components"].(map[string]interface{})["schemas"].(map[string]interface{})["Pet"].(map[string]interface{})
	pet["required"] = []interface{}{}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "/components/schemas/Pet/required/id", cs.Changes[0].Location)
	assert.False(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_PropertyRemovedIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	pet := current["components"].(map[string]interface{})["schemas"].(map[string]interface{})["Pet"].(map[string]interface{})
	delete(pet["properties"].(map[string]interface{}), "name")

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "/components/schemas/Pet/properties/name", cs.Changes[0].Location)
	assert.True(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_SchemaTypeChangedIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	pet := current["components"].(map[string]interface{})["schemas"].(map[string]interface{})["Pet"].(map[string]interface{})
	pet["properties"].(map[string]interface{})["id"] = map[string]interface{}{"type": "string"}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "/components/schemas/Pet/properties/id/type", cs.Changes[0].Location)
	assert.True(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_EnumClassification(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())

	withEnum := func(values ...interface{}) models.SpecDocument {
		doc := baseDoc(t)
		pet := doc["components"].(map[string]interface{})["schemas"].(map[string]interface{})["Pet"].(map[string]interface{})
		pet["properties"].(map[string]interface{})["status"] = map[string]interface{}{
			"type": "string",
			"enum": values,
		}
		return doc
	}

	// Adding enum values widens the contract.
	cs := d.DetectChanges(withEnum("available", "sold"), withEnum("available", "sold", "pending"), "target-1")
	require.Len(t, cs.Changes, 1)
	assert.False(t, cs.Changes[0].Breaking)
	assert.Equal(t, "/components/schemas/Pet/properties/status/enum", cs.Changes[0].Location)

	// Removing enum values narrows it.
	cs = d.DetectChanges(withEnum("available", "sold"), withEnum("available"), "target-1")
	require.Len(t, cs.Changes, 1)
	assert.True(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_NamedSchemaAddRemoveNotBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	schemas := current["components"].(map[string]interface{})["schemas"].(map[string]interface{})
	schemas["Order"] = map[string]interface{}{"type": "object"}

	cs := d.DetectChanges(previous, current, "target-1")
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "/components/schemas/Order", cs.Changes[0].Location)
	assert.False(t, cs.Changes[0].Breaking)

	cs = d.DetectChanges(current, previous, "target-1")
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, models.ChangeRemoved, cs.Changes[0].Kind)
	assert.False(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_RequestBodyAddedRequiredIsBreaking(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["requestBody"] = map[string]interface{}{
		"required": true,
		"content":  map[string]interface{}{"application/json": map[string]interface{}{"schema": map[string]interface{}{"type": "object"}}},
	}

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, "/pets/get/requestBody", cs.Changes[0].Location)
	assert.True(t, cs.Changes[0].Breaking)
}

func TestDetectChanges_VersionOnlyChange(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	current["info"].(map[string]interface{})["version"] = "1.0.1"

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	change := cs.Changes[0]
	assert.Equal(t, "/info/version", change.Location)
	assert.Equal(t, models.CategoryOther, change.Category)
	assert.False(t, change.Breaking)
	assert.Equal(t, "1.0.0", change.Before)
	assert.Equal(t, "1.0.1", change.After)
}

func TestDetectChanges_SymmetricLocations(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	docA := baseDoc(t)
	docB := baseDoc(t)

	paths := docB["paths"].(map[string]interface{})
	paths["/users"] = map[string]interface{}{"get": map[string]interface{}{}}
	pets := paths["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	pets["parameters"].([]interface{})[0].(map[string]interface{})["required"] = true
	pet := docB["components"].(map[string]interface{})["schemas"].(map[string]interface{})["Pet"].(map[string]interface{})
	pet["required"] = []interface{}{"id", "name"}
	docB["info"].(map[string]interface{})["version"] = "2.0.0"

	forward := d.DetectChanges(docA, docB, "target-1")
	backward := d.DetectChanges(docB, docA, "target-1")

	assert.Equal(t, forward.Locations(), backward.Locations())
}

func TestDetectChanges_DeterministicOrdering(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)

	paths := current["paths"].(map[string]interface{})
	paths["/users"] = map[string]interface{}{"get": map[string]interface{}{}}
	paths["/orders"] = map[string]interface{}{"post": map[string]interface{}{}}
	current["info"].(map[string]interface{})["version"] = "1.1.0"
	schemas := current["components"].(map[string]interface{})["schemas"].(map[string]interface{})
	schemas["Order"] = map[string]interface{}{"type": "object"}

	first := d.DetectChanges(previous, current, "target-1")
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again := d.DetectChanges(previous, current, "target-1")
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.Equal(t, string(firstJSON), string(againJSON))
	}
}

func TestDetectChanges_ResponseDescriptionOnlyChange(t *testing.T) {
	d := NewSpecDiffer(zerolog.Nop())
	previous := baseDoc(t)
	current := baseDoc(t)
	getOp := current["paths"].(map[string]interface{})["/pets"].(map[string]interface{})["get"].(map[string]interface{})
	getOp["responses"].(map[string]interface{})["200"].(map[string]interface{})["description"] = "all pets"

	cs := d.DetectChanges(previous, current, "target-1")

	require.Len(t, cs.Changes, 1)
	assert.Equal(t, models.ChangeModified, cs.Changes[0].Kind)
	assert.False(t, cs.Changes[0].Breaking)
	assert.Equal(t, "response definition changed", cs.Changes[0].Detail)
}
