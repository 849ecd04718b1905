package collection

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// DecodeImport parses an import file: a JSON array of objects, each holding
// every key in required. Any problem rejects the whole file.
func DecodeImport[T any](data []byte, required ...string) ([]T, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewImportFormat("import file must be a JSON array of objects")
	}
	for i, obj := range raw {
		if obj == nil {
			return nil, errors.NewImportFormat(fmt.Sprintf("element %d is not an object", i))
		}
		var missing []string
		for _, key := range required {
			v, ok := obj[key]
			if !ok || string(v) == "null" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return nil, errors.NewImportFormat(fmt.Sprintf("element %d is missing required fields: %s", i, strings.Join(missing, ", ")))
		}
	}

	items := make([]T, len(raw))
	for i, obj := range raw {
		b, err := json.Marshal(obj)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := json.Unmarshal(b, &items[i]); err != nil {
			return nil, errors.NewImportFormat(fmt.Sprintf("element %d: %v", i, err))
		}
	}
	return items, nil
}
