// Package normalize projects arbitrarily-keyed shelf records onto the
// canonical comparison schema before they are sent for scoring.
package normalize

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/model"
)

// SchemaError reports a record that cannot be projected onto the
// comparison schema.
type SchemaError struct {
	Row int
	Msg string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("normalize: row %d: %s", e.Row, e.Msg)
}

// Normalize restricts and renames a record set to the canonical
// comparison schema. Field names may be display names, oracle aliases,
// or canonical keys; each is resolved exactly once. Metadata, formula,
// and non-scoring columns are dropped. Input order is preserved and the
// input is never mutated.
//
// Returns a *SchemaError when a record carries neither a product name
// nor a brand, since such a row can never be matched to a counterpart.
func Normalize(rs model.RecordSet) (model.RecordSet, error) {
	comparable := make(map[string]bool)
	for _, c := range model.ComparableColumns() {
		comparable[c.Key] = true
	}

	out := model.RecordSet{Rows: make([]model.Record, 0, len(rs.Rows))}
	for i, rec := range rs.Rows {
		proj := make(model.Record, len(comparable))
		dropped := 0
		for name, v := range rec {
			key := model.CanonicalKey(name)
			if key == "" || !comparable[key] {
				dropped++
				continue
			}
			proj[key] = v
		}
		if proj.String("product_name") == "" && proj.String("brand") == "" {
			return model.RecordSet{}, &SchemaError{
				Row: i,
				Msg: "record has neither product_name nor brand",
			}
		}
		if dropped > 0 {
			zap.L().Debug("dropped non-comparable fields",
				zap.Int("row", i),
				zap.Int("dropped", dropped))
		}
		out.Rows = append(out.Rows, proj)
	}
	return out, nil
}
