package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/JvdW123/shelf-accuracy/internal/oracle"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Invoke(ctx context.Context, req oracle.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func phaseMatcher(phase string) func(oracle.Request) bool {
	return func(req oracle.Request) bool { return req.Phase == phase }
}

// scoringResponse is a minimal well-formed scoring payload: 2 reference
// rows, 1 matched, 1 missed.
const scoringResponse = `{
  "section1": {
    "missed_skus": [{"sku_id": "Tropicana|Original|850", "brand": "Tropicana", "product_name": "Original", "packaging_size_ml": 850}],
    "hallucinated_skus": [{"sku_id": "Phantom|Juice|500", "brand": "Phantom", "product_name": "Juice", "packaging_size_ml": 500}],
    "matched_count": 1,
    "total_gt_count": 2,
    "completeness_score_pct": 50.0
  },
  "section2": {
    "shelf_level":            {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "number_of_shelf_levels": {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "facings":                {"correct": 0, "incorrect": 1, "accuracy_pct": 0.0},
    "price":                  {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "packaging_size_ml":      {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0}
  },
  "section3": {
    "is_private_label":         {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "is_branded_private_label": {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "product_type":             {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0, "flagged": []}
  },
  "section4": {
    "extraction_method": {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "processing_method": {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "hpp_treatment":     {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0},
    "packaging_type":    {"correct": 1, "incorrect": 0, "accuracy_pct": 100.0}
  },
  "section5": {
    "overall_semantic_score_pct": 90.0,
    "product_name_score_pct": 90.0,
    "flavor_score_pct": 90.0,
    "brand_score_pct": 90.0,
    "flagged_rows": []
  },
  "section6": [
    {"sku_id": "Innocent|Smooth OJ|900", "field": "facings", "gt_value": "3", "generated_value": "2", "severity": "critical"}
  ]
}`
