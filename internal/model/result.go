package model

// Severity grades a flagged discrepancy.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// SeverityRank orders severities for sorting and dedup, higher first.
func SeverityRank(s Severity) int {
	if s == SeverityCritical {
		return 2
	}
	return 1
}

// CoreFieldKeys are the fields scored in the core-accuracy section, in
// report order. These use the oracle's field names, not canonical
// column keys; CanonicalKey resolves between the two.
var CoreFieldKeys = []string{
	"shelf_level",
	"number_of_shelf_levels",
	"facings",
	"price",
	"packaging_size_ml",
}

// ClassificationFieldKeys are the fields scored in the classification
// section.
var ClassificationFieldKeys = []string{
	"is_private_label",
	"is_branded_private_label",
	"product_type",
}

// ProcessFieldKeys are the fields scored in the process-attribute
// section.
var ProcessFieldKeys = []string{
	"extraction_method",
	"processing_method",
	"hpp_treatment",
	"packaging_type",
}

// SKURef identifies one SKU in a missed/hallucinated list.
type SKURef struct {
	SKUID           string `json:"sku_id"`
	Brand           string `json:"brand"`
	ProductName     string `json:"product_name"`
	PackagingSizeML *int   `json:"packaging_size_ml"`
}

// Completeness summarizes SKU coverage of an extraction against the
// reference set.
type Completeness struct {
	Missed         []SKURef `json:"missed_skus"`
	Hallucinated   []SKURef `json:"hallucinated_skus"`
	Matched        int      `json:"matched_count"`
	TotalReference int      `json:"total_reference_count"`
	Pct            float64  `json:"completeness_pct"`
}

// FieldAccuracy scores one field across all matched SKUs.
type FieldAccuracy struct {
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Pct       float64 `json:"accuracy_pct"`
}

// SemanticQuality carries soft text-similarity scores for fields
// without a single right answer, aggregated across matched SKUs.
type SemanticQuality struct {
	OverallPct     float64        `json:"overall_pct"`
	ProductNamePct float64        `json:"product_name_pct"`
	FlavorPct      float64        `json:"flavor_pct"`
	BrandPct       float64        `json:"brand_pct"`
	Flagged        []FlaggedEntry `json:"flagged,omitempty"`
}

// FlaggedEntry is one field-level discrepancy worth human attention.
type FlaggedEntry struct {
	SKUID    string   `json:"sku_id"`
	Field    string   `json:"field"`
	Expected string   `json:"expected"`
	Actual   string   `json:"actual"`
	Severity Severity `json:"severity"`
	Note     string   `json:"note,omitempty"`
}

// EvaluationResult is the parsed, validated output of a scoring run.
// Constructed once by the parser, immutable afterwards.
type EvaluationResult struct {
	Completeness          Completeness             `json:"completeness"`
	CoreFields            map[string]FieldAccuracy `json:"core_fields"`
	Classification        map[string]FieldAccuracy `json:"classification"`
	ClassificationFlagged []FlaggedEntry           `json:"classification_flagged,omitempty"`
	ProcessFields         map[string]FieldAccuracy `json:"process_fields"`
	Semantic              SemanticQuality          `json:"semantic"`
	Flagged               []FlaggedEntry           `json:"flagged"`
}

// AccuracyBlocks returns every per-field accuracy block keyed by
// section-qualified name, for uniform iteration.
func (r *EvaluationResult) AccuracyBlocks() map[string]FieldAccuracy {
	out := make(map[string]FieldAccuracy)
	for k, v := range r.CoreFields {
		out["core."+k] = v
	}
	for k, v := range r.Classification {
		out["classification."+k] = v
	}
	for k, v := range r.ProcessFields {
		out["process."+k] = v
	}
	return out
}
