package eval

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/JvdW123/shelf-accuracy/internal/model"
)

// scoringSystemPrompt is the static system prompt for the scoring call.
const scoringSystemPrompt = `You are an accuracy evaluation engine for a shelf-analysis AI system.

You will receive:
  - A list of ground truth SKU rows (manually verified product data)
  - A list of AI-generated SKU rows (output from the shelf analysis pipeline)

Your task:
  1. Semantically match each generated SKU to the most likely ground truth SKU
  2. Score accuracy across 6 sections exactly as specified
  3. Return ONLY a valid JSON object - no prose, no markdown fences, no preamble

The JSON must conform exactly to the schema specified in the user message.
Do not wrap the JSON in fences. Output raw JSON only.`

// scoringInstructions holds the matching rules and required output
// schema. Static text, appended after the data sections.
const scoringInstructions = `
---

## Matching and Scoring Rules

### SKU Matching
- Match each generated SKU to the most semantically similar ground truth SKU
- Primary signals: brand + product_name + packaging_size_ml
- Accept minor spelling differences, abbreviations, and capitalisation differences
- Each SKU can only be matched once (1-to-1 matching)
- Unmatched ground truth SKUs = missed (pipeline failed to find them)
- Unmatched generated SKUs = hallucinated (pipeline invented them)

### Section 2 - Critical Fields (score per matched pair)
- shelf_level: maps to the shelf_level column - exact text match (case-insensitive)
- number_of_shelf_levels: maps to the shelf_levels column - exact integer match
- facings: exact integer match
- price: maps to the price_local column - correct if within 0.01 of ground truth value
- packaging_size_ml: exact integer match

### Section 3 - Classification Fields
- is_private_label: infer from branded_private_label text. True if the value
  semantically means private label (e.g. "Private Label", "Own Brand",
  "Store Brand", "PL"). Compare the GT inference vs the generated inference -
  score as correct if both sides agree.
- is_branded_private_label: True if the value semantically means branded private
  label (e.g. "Branded Private Label", "B-PL", "Branded Own Label"). Compare GT
  vs generated.
- product_type: semantic match - score correct if the meaning is equivalent
  (e.g. "NFC Juice" means "Not From Concentrate Juice"). Flag as incorrect only
  if the product category is completely wrong.

### Section 4 - Extraction Method Fields (exact categorical match)
- extraction_method: maps to the juice_extraction_method column
- processing_method: exact categorical match
- hpp_treatment: exact categorical match
- packaging_type: exact categorical match

### Section 5 - Semantic Field Quality (soft text scoring)
Score 0-100 per matched pair for each of:
- product_name: how closely does the generated name match the ground truth name?
- flavor: how closely does the generated flavor match? Severe deviation = flavor
  completely absent when the product name makes it obvious, or completely wrong.
- brand: how closely does the generated brand match? Severe deviation = brand
  completely absent or completely wrong.
Average each score across all matched pairs to get per-field scores.
Overall semantic score = average of the three per-field scores.

### Section 6 - Flagged Rows
Include one entry per (SKU, field) pair where at least one of the following is true:
- Any Section 2 field is incorrect -> severity = "critical"
- Any Section 3 field is incorrect -> severity = "critical"
- Any Section 4 field is incorrect -> severity = "critical"
- Any Section 5 field has a severe semantic deviation (score < 40) -> severity = "warning"

---

## Required JSON Output

Return ONLY the following JSON object. Fill all counts and scores with real values.
Do NOT include any text before or after the JSON.

{
  "section1": {
    "missed_skus": [
      {"sku_id": "<brand>|<product_name>|<packaging_size_ml>", "brand": "string", "product_name": "string", "packaging_size_ml": null}
    ],
    "hallucinated_skus": [
      {"sku_id": "<brand>|<product_name>|<packaging_size_ml>", "brand": "string", "product_name": "string", "packaging_size_ml": null}
    ],
    "matched_count": 0,
    "total_gt_count": 0,
    "completeness_score_pct": 0.0
  },
  "section2": {
    "shelf_level":            {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "number_of_shelf_levels": {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "facings":                {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "price":                  {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "packaging_size_ml":      {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0}
  },
  "section3": {
    "is_private_label":         {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "is_branded_private_label": {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "product_type": {
      "correct": 0, "incorrect": 0, "accuracy_pct": 0.0,
      "flagged": [
        {"sku_id": "string", "gt_value": "string", "generated_value": "string", "reason": "string"}
      ]
    }
  },
  "section4": {
    "extraction_method": {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "processing_method": {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "hpp_treatment":     {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0},
    "packaging_type":    {"correct": 0, "incorrect": 0, "accuracy_pct": 0.0}
  },
  "section5": {
    "overall_semantic_score_pct": 0.0,
    "product_name_score_pct": 0.0,
    "flavor_score_pct": 0.0,
    "brand_score_pct": 0.0,
    "flagged_rows": [
      {"sku_id": "string", "field": "string", "gt_value": "string", "generated_value": "string", "reason": "string"}
    ]
  },
  "section6": [
    {"sku_id": "string", "field": "string", "gt_value": "string", "generated_value": "string", "severity": "critical"}
  ]
}`

// BuildScoringPrompt serializes both normalized record sets and appends
// the static matching rules and output schema.
func BuildScoringPrompt(reference, generated model.RecordSet) (string, error) {
	refJSON, err := json.MarshalIndent(reference.Rows, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "eval: marshal reference rows")
	}
	genJSON, err := json.MarshalIndent(generated.Rows, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "eval: marshal generated rows")
	}

	data := fmt.Sprintf(
		"## Ground Truth SKUs (%d rows)\n%s\n\n## Generated SKUs (%d rows)\n%s\n",
		reference.Len(), refJSON, generated.Len(), genJSON,
	)
	return data + scoringInstructions, nil
}
