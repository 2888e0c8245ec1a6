package eval

import (
	"sort"

	"github.com/JvdW123/shelf-accuracy/internal/model"
)

// Classify merges the flagged lists from the classification section,
// the semantic-quality section, and the top-level discrepancy list into
// one deduplicated, deterministically ordered list.
//
// Dedup key is (sku_id, field); on conflict the higher severity wins.
// Ordering is severity descending, then sku_id ascending, then field
// ascending, so repeated runs over the same result render identically.
func Classify(result *model.EvaluationResult) []model.FlaggedEntry {
	type key struct{ sku, field string }

	merged := make(map[key]model.FlaggedEntry)
	add := func(entries []model.FlaggedEntry) {
		for _, e := range entries {
			k := key{e.SKUID, e.Field}
			existing, ok := merged[k]
			if !ok || model.SeverityRank(e.Severity) > model.SeverityRank(existing.Severity) {
				merged[k] = e
			}
		}
	}
	add(result.ClassificationFlagged)
	add(result.Semantic.Flagged)
	add(result.Flagged)

	out := make([]model.FlaggedEntry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := model.SeverityRank(out[i].Severity), model.SeverityRank(out[j].Severity); ri != rj {
			return ri > rj
		}
		if out[i].SKUID != out[j].SKUID {
			return out[i].SKUID < out[j].SKUID
		}
		return out[i].Field < out[j].Field
	})
	return out
}
