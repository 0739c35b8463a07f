package differ

import (
	"reflect"

	"github.com/aleister1102/specwatch/internal/models"
)

// diffNamedSchemas compares components.schemas maps. Added and removed named
// schemas are non-breaking on their own; breaking usages surface through the
// request/response diffs that reference them.
func diffNamedSchemas(previous, current map[string]interface{}, c *collector) {
	for name, prevSchema := range previous {
		loc := "/components/schemas/" + name
		currSchema, exists := current[name]
		if !exists {
			c.add(models.Change{
				Kind:     models.ChangeRemoved,
				Category: models.CategorySchema,
				Location: loc,
				Before:   prevSchema,
				Breaking: classifyNamedSchema(models.ChangeRemoved),
			})
			continue
		}
		diffSchemaValue(asMap(prevSchema), asMap(currSchema), loc, models.CategorySchema, c)
	}

	for name, currSchema := range current {
		if _, exists := previous[name]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeAdded,
				Category: models.CategorySchema,
				Location: "/components/schemas/" + name,
				After:    currSchema,
				Breaking: classifyNamedSchema(models.ChangeAdded),
			})
		}
	}
}

// diffSchemaValue structurally compares two schema objects: type, properties,
// required fields, enum values and array items. Unknown keys are ignored.
func diffSchemaValue(previous, current map[string]interface{}, loc string, category models.ChangeCategory, c *collector) {
	if len(previous) == 0 && len(current) == 0 {
		return
	}

	diffSchemaType(previous, current, loc, category, c)
	diffSchemaProperties(previous, current, loc, category, c)
	diffSchemaRequired(previous, current, loc, category, c)
	diffSchemaEnum(previous, current, loc, category, c)

	if prevItems, currItems := asMap(previous["items"]), asMap(current["items"]); len(prevItems) > 0 || len(currItems) > 0 {
		diffSchemaValue(prevItems, currItems, loc+"/items", category, c)
	}
}

func diffSchemaType(previous, current map[string]interface{}, loc string, category models.ChangeCategory, c *collector) {
	prevType, _ := previous["type"].(string)
	currType, _ := current["type"].(string)
	if prevType == currType {
		return
	}
	c.add(models.Change{
		Kind:     models.ChangeModified,
		Category: category,
		Location: loc + "/type",
		Before:   prevType,
		After:    currType,
		Breaking: classifyTypeChange(),
		Detail:   "type changed from " + describeValue(prevType) + " to " + describeValue(currType),
	})
}

func diffSchemaProperties(previous, current map[string]interface{}, loc string, category models.ChangeCategory, c *collector) {
	prevProps, currProps := asMap(previous["properties"]), asMap(current["properties"])

	for name, prevProp := range prevProps {
		propLoc := loc + "/properties/" + name
		currProp, exists := currProps[name]
		if !exists {
			c.add(models.Change{
				Kind:     models.ChangeRemoved,
				Category: category,
				Location: propLoc,
				Before:   prevProp,
				Breaking: classifyProperty(models.ChangeRemoved),
			})
			continue
		}
		if reflect.DeepEqual(prevProp, currProp) {
			continue
		}
		diffSchemaValue(asMap(prevProp), asMap(currProp), propLoc, category, c)
	}

	for name, currProp := range currProps {
		if _, exists := prevProps[name]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeAdded,
				Category: category,
				Location: loc + "/properties/" + name,
				After:    currProp,
				Breaking: classifyProperty(models.ChangeAdded),
			})
		}
	}
}

func diffSchemaRequired(previous, current map[string]interface{}, loc string, category models.ChangeCategory, c *collector) {
	prevRequired := stringSet(asSlice(previous["required"]))
	currRequired := stringSet(asSlice(current["required"]))

	for field := range prevRequired {
		if _, exists := currRequired[field]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeModified,
				Category: category,
				Location: loc + "/required/" + field,
				Before:   field,
				Breaking: classifyRequiredField(models.ChangeRemoved),
				Detail:   "field no longer required",
			})
		}
	}
	for field := range currRequired {
		if _, exists := prevRequired[field]; !exists {
			c.add(models.Change{
				Kind:     models.ChangeModified,
				Category: category,
				Location: loc + "/required/" + field,
				After:    field,
				Breaking: classifyRequiredField(models.ChangeAdded),
				Detail:   "field became required",
			})
		}
	}
}

func diffSchemaEnum(previous, current map[string]interface{}, loc string, category models.ChangeCategory, c *collector) {
	prevEnum, currEnum := asSlice(previous["enum"]), asSlice(current["enum"])
	if prevEnum == nil && currEnum == nil {
		return
	}
	if reflect.DeepEqual(prevEnum, currEnum) {
		return
	}

	removed := enumValuesRemoved(prevEnum, currEnum)
	c.add(models.Change{
		Kind:     models.ChangeModified,
		Category: category,
		Location: loc + "/enum",
		Before:   prevEnum,
		After:    currEnum,
		Breaking: classifyEnumChange(removed),
		Detail:   enumDetail(removed),
	})
}

func enumDetail(valuesRemoved bool) string {
	if valuesRemoved {
		return "enum values removed"
	}
	return "enum values added"
}

// enumValuesRemoved reports whether any previous enum value is gone from the
// current set.
func enumValuesRemoved(previous, current []interface{}) bool {
	for _, prevValue := range previous {
		found := false
		for _, currValue := range current {
			if reflect.DeepEqual(prevValue, currValue) {
				found = true
				break
			}
		}
		if !found {
			return true
		}
	}
	return false
}

func stringSet(values []interface{}) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			set[s] = struct{}{}
		}
	}
	return set
}
