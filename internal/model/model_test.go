package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_ColumnCountAndOrder(t *testing.T) {
	require.Len(t, Columns, 32)
	assert.Equal(t, "country", Columns[0].Key)
	assert.Equal(t, "price_eur", Columns[18].Key)
	assert.Equal(t, "packaging_size_ml", Columns[19].Key)
	assert.Equal(t, "price_per_liter_eur", Columns[20].Key)
	assert.Equal(t, "stock_status", Columns[28].Key)
	assert.Equal(t, "confidence_score", Columns[31].Key)
}

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "price_local", CanonicalKey("Price (Local Currency)"))
	assert.Equal(t, "price_local", CanonicalKey("price"))
	assert.Equal(t, "price_local", CanonicalKey("price_local"))
	assert.Equal(t, "shelf_levels", CanonicalKey("number_of_shelf_levels"))
	assert.Equal(t, "juice_extraction_method", CanonicalKey("extraction_method"))
	assert.Equal(t, "brand", CanonicalKey("  Brand  "))
	assert.Equal(t, "", CanonicalKey("no_such_column"))
	assert.Equal(t, "", CanonicalKey(""))
}

func TestColumnIndex(t *testing.T) {
	assert.Equal(t, 18, ColumnIndex("price_eur"))
	assert.Equal(t, -1, ColumnIndex("bogus"))
}

func TestComparableColumns_ExcludesMetadataFormulaPhoto(t *testing.T) {
	for _, c := range ComparableColumns() {
		assert.False(t, MetadataKeys[c.Key], c.Key)
		assert.NotEqual(t, "price_per_liter_eur", c.Key)
		assert.NotEqual(t, "photo", c.Key)
	}
	assert.Len(t, ComparableColumns(), 32-len(MetadataKeys)-len(FormulaKeys)-len(NonScoringKeys))
}

func TestRecord_SKUID(t *testing.T) {
	r := Record{"brand": "Innocent", "product_name": "Smooth OJ", "packaging_size_ml": 900}
	assert.Equal(t, "Innocent|Smooth OJ|900", r.SKUID())

	partial := Record{"product_name": "Smooth OJ"}
	assert.Equal(t, "unknown|Smooth OJ|unknown", partial.SKUID())
}

func TestRecord_Getters(t *testing.T) {
	r := Record{"facings": float64(3), "price_local": 1.99, "brand": " Tropicana "}
	n, ok := r.Int("facings")
	require.True(t, ok)
	assert.Equal(t, 3, n)

	f, ok := r.Float("price_local")
	require.True(t, ok)
	assert.Equal(t, 1.99, f)

	assert.Equal(t, "Tropicana", r.String("brand"))
	assert.Equal(t, "", r.String("missing"))

	_, ok = r.Int("brand")
	assert.False(t, ok)
}

func TestMetadata_Value(t *testing.T) {
	m := Metadata{Retailer: "Tesco", City: "London"}
	assert.Equal(t, "Tesco", m.Value("retailer"))
	assert.Equal(t, "London", m.Value("city"))
	assert.Equal(t, "", m.Value("bogus"))
}

func TestEvaluationResult_AccuracyBlocks(t *testing.T) {
	r := &EvaluationResult{
		CoreFields:     map[string]FieldAccuracy{"facings": {Correct: 9, Incorrect: 3, Pct: 75}},
		Classification: map[string]FieldAccuracy{"product_type": {Correct: 5, Pct: 100}},
		ProcessFields:  map[string]FieldAccuracy{"hpp_treatment": {Correct: 1, Incorrect: 1, Pct: 50}},
	}
	blocks := r.AccuracyBlocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, 75.0, blocks["core.facings"].Pct)
	assert.Equal(t, 100.0, blocks["classification.product_type"].Pct)
	assert.Equal(t, 50.0, blocks["process.hpp_treatment"].Pct)
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityRank(SeverityCritical), SeverityRank(SeverityWarning))
}
