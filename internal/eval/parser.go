package eval

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/model"
)

// requiredSections are the top-level keys a scoring response must carry.
var requiredSections = []string{
	"section1", "section2", "section3", "section4", "section5", "section6",
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// wire types mirror the JSON the oracle is instructed to return.

type wireSKURef struct {
	SKUID           string      `json:"sku_id"`
	Brand           string      `json:"brand"`
	ProductName     string      `json:"product_name"`
	PackagingSizeML json.Number `json:"packaging_size_ml"`
}

type wireSection1 struct {
	MissedSKUs       []wireSKURef `json:"missed_skus"`
	HallucinatedSKUs []wireSKURef `json:"hallucinated_skus"`
	MatchedCount     *int         `json:"matched_count"`
	TotalGTCount     *int         `json:"total_gt_count"`
	CompletenessPct  *float64     `json:"completeness_score_pct"`
}

type wireFlag struct {
	SKUID          string `json:"sku_id"`
	Field          string `json:"field"`
	GTValue        string `json:"gt_value"`
	GeneratedValue string `json:"generated_value"`
	Reason         string `json:"reason"`
	Severity       string `json:"severity"`
}

type wireAccuracy struct {
	Correct   *int       `json:"correct"`
	Incorrect *int       `json:"incorrect"`
	Pct       *float64   `json:"accuracy_pct"`
	Flagged   []wireFlag `json:"flagged"`
}

type wireSection5 struct {
	OverallPct     *float64   `json:"overall_semantic_score_pct"`
	ProductNamePct *float64   `json:"product_name_score_pct"`
	FlavorPct      *float64   `json:"flavor_score_pct"`
	BrandPct       *float64   `json:"brand_score_pct"`
	FlaggedRows    []wireFlag `json:"flagged_rows"`
}

// Parser turns raw oracle text into a validated EvaluationResult.
type Parser struct {
	// Tolerance is the maximum gap, in percentage points, between a
	// reported percentage and the value recomputed from its own counts
	// before the reported value is overwritten. Within tolerance the
	// oracle's number is kept.
	Tolerance float64
}

// Parse validates raw scoring output. Returns *OracleResponseError when
// the text is not well-formed JSON, *ValidationError when a required
// section or count is missing or an invariant is violated. Soft
// anomalies (drifted percentages, unknown severities) are repaired in
// place and logged, never raised.
func (p Parser) Parse(raw string) (*model.EvaluationResult, error) {
	cleaned, err := cleanJSON(raw)
	if err != nil {
		return nil, &OracleResponseError{Raw: raw, Err: err}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return nil, &OracleResponseError{Raw: raw, Err: err}
	}

	for _, name := range requiredSections {
		if _, ok := top[name]; !ok {
			return nil, &ValidationError{Section: name, Msg: "required section missing"}
		}
	}

	result := &model.EvaluationResult{}

	if err := p.parseSection1(top["section1"], result); err != nil {
		return nil, err
	}
	var verr error
	result.CoreFields, _, verr = p.parseAccuracySection(top["section2"], "section2", model.CoreFieldKeys, result.Completeness.Matched)
	if verr != nil {
		return nil, verr
	}
	var classFlagged []model.FlaggedEntry
	result.Classification, classFlagged, verr = p.parseAccuracySection(top["section3"], "section3", model.ClassificationFieldKeys, result.Completeness.Matched)
	if verr != nil {
		return nil, verr
	}
	result.ClassificationFlagged = classFlagged
	result.ProcessFields, _, verr = p.parseAccuracySection(top["section4"], "section4", model.ProcessFieldKeys, result.Completeness.Matched)
	if verr != nil {
		return nil, verr
	}
	if err := p.parseSection5(top["section5"], result); err != nil {
		return nil, err
	}
	if err := p.parseSection6(top["section6"], result); err != nil {
		return nil, err
	}

	return result, nil
}

func (p Parser) parseSection1(raw json.RawMessage, result *model.EvaluationResult) error {
	var s1 wireSection1
	if err := json.Unmarshal(raw, &s1); err != nil {
		return &ValidationError{Section: "section1", Msg: err.Error()}
	}
	if s1.MatchedCount == nil || s1.TotalGTCount == nil {
		return &ValidationError{Section: "section1", Msg: "matched_count and total_gt_count are required"}
	}
	matched, total := *s1.MatchedCount, *s1.TotalGTCount
	if matched < 0 || total < 0 {
		return &ValidationError{Section: "section1", Msg: "counts must be non-negative"}
	}
	if matched > total {
		return &ValidationError{Section: "section1", Msg: "matched_count exceeds total_gt_count"}
	}

	pct := p.reconcilePct("section1.completeness_score_pct", s1.CompletenessPct, matched, total)

	result.Completeness = model.Completeness{
		Missed:         toSKURefs(s1.MissedSKUs),
		Hallucinated:   toSKURefs(s1.HallucinatedSKUs),
		Matched:        matched,
		TotalReference: total,
		Pct:            pct,
	}
	return nil
}

func (p Parser) parseAccuracySection(raw json.RawMessage, section string, keys []string, matched int) (map[string]model.FieldAccuracy, []model.FlaggedEntry, error) {
	var blocks map[string]wireAccuracy
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, nil, &ValidationError{Section: section, Msg: err.Error()}
	}

	out := make(map[string]model.FieldAccuracy, len(keys))
	var flagged []model.FlaggedEntry
	for _, key := range keys {
		block, ok := blocks[key]
		if !ok {
			return nil, nil, &ValidationError{Section: section, Msg: "missing field block: " + key}
		}
		if block.Correct == nil || block.Incorrect == nil {
			return nil, nil, &ValidationError{Section: section, Msg: "missing counts for field: " + key}
		}
		correct, incorrect := *block.Correct, *block.Incorrect
		if correct < 0 || incorrect < 0 {
			return nil, nil, &ValidationError{Section: section, Msg: "negative count for field: " + key}
		}
		if correct+incorrect > matched {
			return nil, nil, &ValidationError{Section: section, Msg: "scored pairs exceed matched count for field: " + key}
		}

		pct := p.reconcilePct(section+"."+key+".accuracy_pct", block.Pct, correct, correct+incorrect)
		out[key] = model.FieldAccuracy{Correct: correct, Incorrect: incorrect, Pct: pct}

		// Flagged entries embedded in an accuracy block report concrete
		// classification misses.
		for _, f := range block.Flagged {
			field := f.Field
			if field == "" {
				field = key
			}
			flagged = append(flagged, model.FlaggedEntry{
				SKUID:    f.SKUID,
				Field:    field,
				Expected: f.GTValue,
				Actual:   f.GeneratedValue,
				Severity: model.SeverityCritical,
				Note:     f.Reason,
			})
		}
	}
	return out, flagged, nil
}

func (p Parser) parseSection5(raw json.RawMessage, result *model.EvaluationResult) error {
	var s5 wireSection5
	if err := json.Unmarshal(raw, &s5); err != nil {
		return &ValidationError{Section: "section5", Msg: err.Error()}
	}

	sq := model.SemanticQuality{
		ProductNamePct: deref(s5.ProductNamePct),
		FlavorPct:      deref(s5.FlavorPct),
		BrandPct:       deref(s5.BrandPct),
	}
	recomputed := (sq.ProductNamePct + sq.FlavorPct + sq.BrandPct) / 3
	if s5.OverallPct == nil || math.Abs(*s5.OverallPct-recomputed) > p.Tolerance {
		if s5.OverallPct != nil {
			zap.L().Warn("overall semantic score inconsistent with per-field scores, recomputing",
				zap.Float64("reported", *s5.OverallPct),
				zap.Float64("recomputed", recomputed))
		}
		sq.OverallPct = recomputed
	} else {
		sq.OverallPct = *s5.OverallPct
	}

	for _, f := range s5.FlaggedRows {
		sq.Flagged = append(sq.Flagged, model.FlaggedEntry{
			SKUID:    f.SKUID,
			Field:    f.Field,
			Expected: f.GTValue,
			Actual:   f.GeneratedValue,
			Severity: model.SeverityWarning,
			Note:     f.Reason,
		})
	}
	result.Semantic = sq
	return nil
}

func (p Parser) parseSection6(raw json.RawMessage, result *model.EvaluationResult) error {
	var flags []wireFlag
	if err := json.Unmarshal(raw, &flags); err != nil {
		return &ValidationError{Section: "section6", Msg: err.Error()}
	}
	for _, f := range flags {
		result.Flagged = append(result.Flagged, model.FlaggedEntry{
			SKUID:    f.SKUID,
			Field:    f.Field,
			Expected: f.GTValue,
			Actual:   f.GeneratedValue,
			Severity: coerceSeverity(f.Severity),
			Note:     f.Reason,
		})
	}
	return nil
}

// reconcilePct recomputes numerator/denominator*100 and keeps the
// reported value only when present and within tolerance. Zero
// denominator yields 0, never an error.
func (p Parser) reconcilePct(name string, reported *float64, numerator, denominator int) float64 {
	var recomputed float64
	if denominator > 0 {
		recomputed = float64(numerator) / float64(denominator) * 100
	}
	if reported != nil && math.Abs(*reported-recomputed) <= p.Tolerance {
		return *reported
	}
	if reported != nil {
		zap.L().Warn("percentage inconsistent with counts, recomputing",
			zap.String("field", name),
			zap.Float64("reported", *reported),
			zap.Float64("recomputed", recomputed))
	}
	return recomputed
}

// coerceSeverity maps unknown severity tokens to warning.
func coerceSeverity(s string) model.Severity {
	switch model.Severity(strings.ToLower(strings.TrimSpace(s))) {
	case model.SeverityCritical:
		return model.SeverityCritical
	case model.SeverityWarning:
		return model.SeverityWarning
	default:
		zap.L().Warn("unknown severity token, coercing to warning", zap.String("severity", s))
		return model.SeverityWarning
	}
}

// cleanJSON extracts a JSON object from an oracle response, tolerating
// markdown fences and stray prose around the object.
func cleanJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", &noJSONError{}
	}
	return text[start : end+1], nil
}

type noJSONError struct{}

func (*noJSONError) Error() string { return "no JSON object found in response" }

func toSKURefs(in []wireSKURef) []model.SKURef {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.SKURef, 0, len(in))
	for _, r := range in {
		ref := model.SKURef{SKUID: r.SKUID, Brand: r.Brand, ProductName: r.ProductName}
		if n, err := r.PackagingSizeML.Int64(); err == nil {
			size := int(n)
			ref.PackagingSizeML = &size
		}
		out = append(out, ref)
	}
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
