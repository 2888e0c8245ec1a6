package model

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnType is the declared cell type of a schema column.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
)

// Column describes one column of the canonical export schema.
type Column struct {
	Name string     `yaml:"name"` // display name, used as the XLSX header
	Key  string     `yaml:"key"`  // canonical key, used everywhere else
	Type ColumnType `yaml:"type"`
}

//go:embed schema.yaml
var schemaYAML []byte

// Columns is the canonical export schema in column order.
var Columns = mustLoadSchema()

func mustLoadSchema() []Column {
	var wrapper struct {
		Columns []Column `yaml:"columns"`
	}
	if err := yaml.Unmarshal(schemaYAML, &wrapper); err != nil {
		panic("model: parse embedded schema: " + err.Error())
	}
	return wrapper.Columns
}

// MetadataKeys are user-supplied columns, constant across a batch. They
// are never scored and never taken from analysis output.
var MetadataKeys = map[string]bool{
	"country": true, "city": true, "retailer": true, "store_format": true,
	"store_name": true, "shelf_location": true, "currency": true,
}

// FormulaKeys are columns whose cells are always written as live
// formulas, never populated directly.
var FormulaKeys = map[string]bool{
	"price_per_liter_eur": true,
}

// NonScoringKeys are columns excluded from comparison for reasons other
// than being metadata or formulas.
var NonScoringKeys = map[string]bool{
	"photo": true,
}

// FieldAliases maps the field names the oracle uses in its scoring
// response to canonical column keys. Applied exactly once; canonical
// keys pass through unchanged.
var FieldAliases = map[string]string{
	"price":                  "price_local",
	"number_of_shelf_levels": "shelf_levels",
	"extraction_method":      "juice_extraction_method",
}

// CanonicalKey resolves a display name, alias, or canonical key to the
// canonical column key. Returns "" when nothing matches.
func CanonicalKey(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	if k, ok := nameToKey[n]; ok {
		return k
	}
	if k, ok := FieldAliases[n]; ok {
		return k
	}
	if _, ok := keyIndex[n]; ok {
		return n
	}
	return ""
}

// ColumnIndex returns the zero-based schema position of a canonical key,
// or -1 when the key is not part of the schema.
func ColumnIndex(key string) int {
	if i, ok := keyIndex[key]; ok {
		return i
	}
	return -1
}

// ColumnByKey returns the schema column for a canonical key.
func ColumnByKey(key string) (Column, bool) {
	i, ok := keyIndex[key]
	if !ok {
		return Column{}, false
	}
	return Columns[i], true
}

// ComparableColumns returns the columns that participate in accuracy
// scoring: everything except metadata, formula, and non-scoring columns.
func ComparableColumns() []Column {
	var out []Column
	for _, c := range Columns {
		if MetadataKeys[c.Key] || FormulaKeys[c.Key] || NonScoringKeys[c.Key] {
			continue
		}
		out = append(out, c)
	}
	return out
}

var (
	nameToKey = make(map[string]string, len(Columns))
	keyIndex  = make(map[string]int, len(Columns))
)

func init() {
	for i, c := range Columns {
		nameToKey[strings.ToLower(c.Name)] = c.Key
		keyIndex[c.Key] = i
	}
}
