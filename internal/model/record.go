package model

import (
	"fmt"
	"strings"
)

// Record is one product entry keyed by canonical column keys. Values are
// string, int, float64, or nil depending on the column type; absent and
// nil both mean "not populated".
type Record map[string]any

// RecordSet is an ordered sequence of Records. Identity is by SKU key,
// not position. A RecordSet is constructed once per evaluation run and
// never mutated afterwards.
type RecordSet struct {
	Rows []Record
}

// Len returns the number of records.
func (rs RecordSet) Len() int { return len(rs.Rows) }

// Metadata holds the user-supplied fields that are constant across a
// batch and stamped into every exported row.
type Metadata struct {
	Country       string `json:"country"`
	City          string `json:"city"`
	Retailer      string `json:"retailer"`
	StoreFormat   string `json:"store_format"`
	StoreName     string `json:"store_name"`
	ShelfLocation string `json:"shelf_location"`
	Currency      string `json:"currency"`
}

// Value returns the metadata value for a canonical metadata key.
func (m Metadata) Value(key string) string {
	switch key {
	case "country":
		return m.Country
	case "city":
		return m.City
	case "retailer":
		return m.Retailer
	case "store_format":
		return m.StoreFormat
	case "store_name":
		return m.StoreName
	case "shelf_location":
		return m.ShelfLocation
	case "currency":
		return m.Currency
	default:
		return ""
	}
}

// String returns the trimmed string value for key, or "" when absent or
// not a string.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(s)
}

// Int returns the integer value for key. Float values are truncated;
// anything else reports !ok.
func (r Record) Int(key string) (int, bool) {
	switch n := r[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Float returns the float value for key.
func (r Record) Float(key string) (float64, bool) {
	switch n := r[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// SKUID builds the composite identity key for a record:
// brand|product_name|packaging_size_ml, with "unknown" for missing
// parts. Matches the key format the oracle is instructed to use.
func (r Record) SKUID() string {
	part := func(key string) string {
		if s := r.String(key); s != "" {
			return s
		}
		return "unknown"
	}
	size := "unknown"
	if n, ok := r.Int("packaging_size_ml"); ok {
		size = fmt.Sprintf("%d", n)
	}
	return part("brand") + "|" + part("product_name") + "|" + size
}
