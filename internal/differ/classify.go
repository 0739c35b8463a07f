package differ

import "github.com/aleister1102/specwatch/internal/models"

// Breaking-change classification. Every function here is a pure function of
// the change's category, kind and the facts the differ extracted while
// building it; no surrounding document context is consulted.

// classifyPath: removing a path breaks consumers, adding one never does.
func classifyPath(kind models.ChangeKind) bool {
	return kind == models.ChangeRemoved
}

// classifyOperation: removing an operation breaks consumers.
func classifyOperation(kind models.ChangeKind) bool {
	return kind == models.ChangeRemoved
}

// classifyParameter: a new required parameter breaks existing callers; a new
// optional parameter, or a removed one, does not. A modified parameter
// breaks callers when it became required or its type changed.
func classifyParameter(kind models.ChangeKind, required bool, typeChanged bool) bool {
	switch kind {
	case models.ChangeAdded:
		return required
	case models.ChangeModified:
		return required || typeChanged
	default:
		return false
	}
}

// classifyProperty: removing a property breaks consumers that read it;
// adding one is additive.
func classifyProperty(kind models.ChangeKind) bool {
	return kind == models.ChangeRemoved
}

// classifyRequiredField: making an existing field required breaks producers
// of the old shape; dropping a requirement relaxes the contract.
func classifyRequiredField(kind models.ChangeKind) bool {
	return kind == models.ChangeAdded
}

// classifyTypeChange: any type change is treated as narrowing, best effort.
func classifyTypeChange() bool {
	return true
}

// classifyEnumChange: added enum values are additive, removed values break
// producers of those values.
func classifyEnumChange(valuesRemoved bool) bool {
	return valuesRemoved
}

// classifyResponse: removing a documented response breaks consumers that
// branch on it.
func classifyResponse(kind models.ChangeKind) bool {
	return kind == models.ChangeRemoved
}

// classifyNamedSchema: a removed named schema is treated as unused removal
// (breaking usages surface as request/response changes of their own).
func classifyNamedSchema(kind models.ChangeKind) bool {
	_ = kind
	return false
}

// classifyRequestBody: a new mandatory request body breaks existing callers.
func classifyRequestBody(kind models.ChangeKind, required bool) bool {
	return kind == models.ChangeAdded && required
}
