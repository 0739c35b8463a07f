package differ

import (
	"fmt"
	"reflect"

	"github.com/aleister1102/specwatch/internal/models"
	"github.com/rs/zerolog"
)

// SpecDiffer computes a structured, classified change set between two
// specification documents. Diffing is structural and best-effort: missing
// sections are treated as empty maps, never as failures.
type SpecDiffer struct {
	logger zerolog.Logger
}

// NewSpecDiffer creates a new SpecDiffer.
func NewSpecDiffer(logger zerolog.Logger) *SpecDiffer {
	return &SpecDiffer{
		logger: logger.With().Str("component", "SpecDiffer").Logger(),
	}
}

// DetectChanges compares a target's previous document against the current
// one. A nil previous document establishes the baseline: no changes.
// Output ordering is deterministic so repeated runs over identical inputs
// produce byte-identical serialized change sets.
func (d *SpecDiffer) DetectChanges(previous, current models.SpecDocument, targetID string) models.ChangeSet {
	cs := models.ChangeSet{TargetID: targetID}
	if previous == nil {
		d.logger.Debug().Str("target_id", targetID).Msg("No previous document, establishing baseline")
		return cs
	}

	c := &collector{}
	d.diffPaths(previous.Paths(), current.Paths(), c)
	diffNamedSchemas(previous.Schemas(), current.Schemas(), c)

	if prevVersion, currVersion := previous.Version(), current.Version(); prevVersion != currVersion {
		c.add(models.Change{
			Kind:     models.ChangeModified,
			Category: models.CategoryOther,
			Location: "/info/version",
			Before:   prevVersion,
			After:    currVersion,
			Breaking: false,
			Detail:   "declared version changed",
		})
	}

	cs.Changes = c.changes
	cs.Sort()

	d.logger.Debug().
		Str("target_id", targetID).
		Int("changes", len(cs.Changes)).
		Int("breaking", cs.BreakingCount()).
		Msg("Change detection completed")
	return cs
}

// collector accumulates changes during a diff walk.
type collector struct {
	changes []models.Change
}

func (c *collector) add(change models.Change) {
	c.changes = append(c.changes, change)
}

// diffPaths walks both paths maps, recursing into operations for paths
// present on both sides.
func (d *SpecDiffer) diffPaths(previous, current map[string]interface{}, c *collector) {
	for path, prevItem := range previous {
		currItem, exists := current[path]
		if !exists {
			c.add(models.Change{
				Kind:     models.ChangeRemoved,
				Category: models.CategoryPath,
				Location: path,
				Before:   prevItem,
				Breaking: classifyPath(models.ChangeRemoved),
			})
			continue
		}
		d.diffOperations(path, asMap(prevItem), asMap(currItem), c)
	}

	for path, currItem := range current {
		if _, exists := previous[path]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeAdded,
				Category: models.CategoryPath,
				Location: path,
				After:    currItem,
				Breaking: classifyPath(models.ChangeAdded),
			})
		}
	}
}

// diffOperations compares a path item method-by-method.
func (d *SpecDiffer) diffOperations(path string, previous, current map[string]interface{}, c *collector) {
	for method, prevOp := range previous {
		if !models.IsHTTPMethod(method) {
			continue
		}
		loc := path + "/" + method
		currOp, exists := current[method]
		if !exists {
			c.add(models.Change{
				Kind:     models.ChangeRemoved,
				Category: models.CategoryOperation,
				Location: loc,
				Breaking: classifyOperation(models.ChangeRemoved),
			})
			continue
		}
		d.diffOperation(loc, asMap(prevOp), asMap(currOp), c)
	}

	for method := range current {
		if !models.IsHTTPMethod(method) {
			continue
		}
		if _, exists := previous[method]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeAdded,
				Category: models.CategoryOperation,
				Location: path + "/" + method,
				Breaking: classifyOperation(models.ChangeAdded),
			})
		}
	}
}

// diffOperation compares one operation's parameters, request body and
// responses.
func (d *SpecDiffer) diffOperation(loc string, previous, current map[string]interface{}, c *collector) {
	diffParameters(loc, asSlice(previous["parameters"]), asSlice(current["parameters"]), c)
	diffRequestBody(loc, previous["requestBody"], current["requestBody"], c)
	diffResponses(loc, asMap(previous["responses"]), asMap(current["responses"]), c)
}

// paramKey identifies a parameter by its (name, location) tuple.
func paramKey(param map[string]interface{}) string {
	name, _ := param["name"].(string)
	in, _ := param["in"].(string)
	return in + ":" + name
}

func paramRequired(param map[string]interface{}) bool {
	required, _ := param["required"].(bool)
	return required
}

func paramType(param map[string]interface{}) string {
	if schema := asMap(param["schema"]); len(schema) > 0 {
		if t, ok := schema["type"].(string); ok {
			return t
		}
	}
	// Swagger 2 keeps the type directly on the parameter.
	if t, ok := param["type"].(string); ok {
		return t
	}
	return ""
}

func diffParameters(loc string, previous, current []interface{}, c *collector) {
	prevParams := make(map[string]map[string]interface{})
	for _, p := range previous {
		if param := asMap(p); len(param) > 0 {
			prevParams[paramKey(param)] = param
		}
	}
	currParams := make(map[string]map[string]interface{})
	for _, p := range current {
		if param := asMap(p); len(param) > 0 {
			currParams[paramKey(param)] = param
		}
	}

	for key, prevParam := range prevParams {
		paramLoc := loc + "/parameters/" + key
		currParam, exists := currParams[key]
		if !exists {
			c.add(models.Change{
				Kind:     models.ChangeRemoved,
				Category: models.CategoryParameter,
				Location: paramLoc,
				Before:   prevParam,
				Breaking: classifyParameter(models.ChangeRemoved, paramRequired(prevParam), false),
			})
			continue
		}
		if reflect.DeepEqual(prevParam, currParam) {
			continue
		}
		typeChanged := paramType(prevParam) != paramType(currParam)
		becameRequired := !paramRequired(prevParam) && paramRequired(currParam)
		c.add(models.Change{
			Kind:     models.ChangeModified,
			Category: models.CategoryParameter,
			Location: paramLoc,
			Before:   prevParam,
			After:    currParam,
			Breaking: classifyParameter(models.ChangeModified, becameRequired, typeChanged),
			Detail:   parameterDetail(typeChanged, becameRequired),
		})
	}

	for key, currParam := range currParams {
		if _, exists := prevParams[key]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeAdded,
				Category: models.CategoryParameter,
				Location: loc + "/parameters/" + key,
				After:    currParam,
				Breaking: classifyParameter(models.ChangeAdded, paramRequired(currParam), false),
			})
		}
	}
}

func parameterDetail(typeChanged, becameRequired bool) string {
	switch {
	case typeChanged && becameRequired:
		return "type changed and became required"
	case typeChanged:
		return "type changed"
	case becameRequired:
		return "became required"
	default:
		return "definition changed"
	}
}

func diffRequestBody(loc string, previous, current interface{}, c *collector) {
	prevBody, currBody := asMap(previous), asMap(current)
	bodyLoc := loc + "/requestBody"

	switch {
	case len(prevBody) == 0 && len(currBody) == 0:
		return
	case len(prevBody) == 0:
		required, _ := currBody["required"].(bool)
		c.add(models.Change{
			Kind:     models.ChangeAdded,
			Category: models.CategorySchema,
			Location: bodyLoc,
			After:    currBody,
			Breaking: classifyRequestBody(models.ChangeAdded, required),
		})
		return
	case len(currBody) == 0:
		c.add(models.Change{
			Kind:     models.ChangeRemoved,
			Category: models.CategorySchema,
			Location: bodyLoc,
			Before:   prevBody,
			Breaking: classifyRequestBody(models.ChangeRemoved, false),
		})
		return
	}

	diffContentSchemas(bodyLoc, prevBody, currBody, models.CategorySchema, c)
}

func diffResponses(loc string, previous, current map[string]interface{}, c *collector) {
	for status, prevResp := range previous {
		respLoc := loc + "/responses/" + status
		currResp, exists := current[status]
		if !exists {
			c.add(models.Change{
				Kind:     models.ChangeRemoved,
				Category: models.CategoryResponse,
				Location: respLoc,
				Before:   prevResp,
				Breaking: classifyResponse(models.ChangeRemoved),
			})
			continue
		}
		if reflect.DeepEqual(prevResp, currResp) {
			continue
		}

		before := len(c.changes)
		diffContentSchemas(respLoc, asMap(prevResp), asMap(currResp), models.CategoryResponse, c)
		if len(c.changes) == before {
			// The definitions differ in some non-schema aspect
			// (description, headers); record it without a breaking flag.
			c.add(models.Change{
				Kind:     models.ChangeModified,
				Category: models.CategoryResponse,
				Location: respLoc,
				Breaking: false,
				Detail:   "response definition changed",
			})
		}
	}

	for status := range current {
		if _, exists := previous[status]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeAdded,
				Category: models.CategoryResponse,
				Location: loc + "/responses/" + status,
				Breaking: classifyResponse(models.ChangeAdded),
			})
		}
	}
}

// diffContentSchemas compares the schemas under a request body or response:
// content/<media-type>/schema in OpenAPI 3, a bare schema key in Swagger 2.
func diffContentSchemas(loc string, previous, current map[string]interface{}, category models.ChangeCategory, c *collector) {
	prevContent, currContent := asMap(previous["content"]), asMap(current["content"])

	if len(prevContent) == 0 && len(currContent) == 0 {
		diffSchemaValue(asMap(previous["schema"]), asMap(current["schema"]), loc+"/schema", category, c)
		return
	}

	for mediaType, prevEntry := range prevContent {
		entryLoc := loc + "/content/" + mediaType
		currEntry, exists := currContent[mediaType]
		if !exists {
			c.add(models.Change{
				Kind:     models.ChangeRemoved,
				Category: category,
				Location: entryLoc,
				Breaking: false,
				Detail:   "media type removed",
			})
			continue
		}
		diffSchemaValue(asMap(asMap(prevEntry)["schema"]), asMap(asMap(currEntry)["schema"]), entryLoc+"/schema", category, c)
	}

	for mediaType := range currContent {
		if _, exists := prevContent[mediaType]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeAdded,
				Category: category,
				Location: loc + "/content/" + mediaType,
				Breaking: false,
				Detail:   "media type added",
			})
		}
	}
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func asSlice(v interface{}) []interface{} {
	if s, ok := v.([]interface{}); ok {
		return s
	}
	return nil
}

func describeValue(v interface{}) string {
	if v == nil {
		return "<none>"
	}
	return fmt.Sprintf("%v", v)
}
