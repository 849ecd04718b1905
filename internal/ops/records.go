package ops

import (
	"fmt"

	"github.com/hpungsan/flowfocus/internal/collection"
	"github.com/hpungsan/flowfocus/internal/errors"
)

type record interface {
	collection.Record
	Validate() error
}

// updateRecord applies fn to a copy of the record and commits it only if the
// result validates. fn must not share slices with the original.
func updateRecord[T record](c *collection.Collection[T], kind, id string, fn func(*T)) (T, error) {
	var zero T
	var invalid error
	updated, ok := c.Update(id, func(v *T) bool {
		next := *v
		fn(&next)
		if invalid = next.Validate(); invalid != nil {
			return false
		}
		*v = next
		return true
	})
	if !ok {
		return zero, errors.NewNotFound(kind, id)
	}
	if invalid != nil {
		return zero, invalid
	}
	return updated, nil
}

// importRecords decodes, fills and validates an import file, then merges it
// by id. Nothing is merged unless every element is acceptable.
func importRecords[T record](c *collection.Collection[T], data []byte, fill func(T) T, required ...string) (*ImportOutput, error) {
	items, err := collection.DecodeImport[T](data, required...)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = fill(items[i])
		if err := items[i].Validate(); err != nil {
			return nil, errors.NewImportFormat(fmt.Sprintf("element %d: %s", i, errors.As(err).Message))
		}
	}
	res := c.Import(items)
	return &ImportOutput{Added: res.Added, Replaced: res.Replaced, Total: c.Len()}, nil
}

// ImportOutput reports what an import merged.
type ImportOutput struct {
	Added    int `json:"added"`
	Replaced int `json:"replaced"`
	Total    int `json:"total"`
}

func getRecord[T record](c *collection.Collection[T], kind, id string) (T, error) {
	v, ok := c.Get(id)
	if !ok {
		return v, errors.NewNotFound(kind, id)
	}
	return v, nil
}

func deleteRecord[T record](c *collection.Collection[T], kind, id string) error {
	if _, ok := c.Delete(id); !ok {
		return errors.NewNotFound(kind, id)
	}
	return nil
}
