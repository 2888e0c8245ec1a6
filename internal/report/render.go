// Package report renders record sets into the styled 32-column XLSX
// export.
package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/JvdW123/shelf-accuracy/internal/config"
	"github.com/JvdW123/shelf-accuracy/internal/model"
)

// RenderError means the export could not be constructed, e.g. a formula
// column reference could not be resolved. The export is all-or-nothing:
// on error no file is produced.
type RenderError struct {
	Msg string
}

func (e *RenderError) Error() string { return "report: " + e.Msg }

// Cell fill and font colors, ARGB.
const (
	headerBG   = "FF2F5496"
	headerFG   = "FFFFFFFF"
	bandBG     = "FFF2F2F2"
	highBG     = "FFC6EFCE"
	highFG     = "FF006100"
	midBG      = "FFFFEB9C"
	midFG      = "FF9C6500"
	lowBG      = "FFFFC7CE"
	lowFG      = "FF9C0006"
	outOfStock = "Out of Stock"

	headerRowHeight = 22.5
	dataRowHeight   = 15.0
)

// columnWidths in Excel character units, keyed by display name.
// Unlisted columns default to 15.
var columnWidths = map[string]float64{
	"Retailer": 20, "Store Format": 18, "Store Name": 20,
	"Photo": 25, "Shelf Location": 25, "Shelf Levels": 12,
	"Shelf Level": 12, "Branded/Private Label": 20, "Brand": 18,
	"Sub-brand": 18, "Product Name": 30, "Flavor": 25, "Facings": 10,
	"Currency": 10, "Price (EUR)": 12, "Packaging Size (ml)": 18,
	"Price per Liter (EUR)": 18, "Juice Extraction Method": 22,
	"Processing Method": 18, "HPP Treatment": 12, "Packaging Type": 18,
	"Claims": 30, "Bonus/Promotions": 25, "Est. Linear Meters": 18,
	"Confidence Score": 16,
}

// Renderer projects records and a validated result into the export.
type Renderer struct {
	cfg      config.ReportConfig
	exchange config.ExchangeConfig
}

// NewRenderer builds a Renderer.
func NewRenderer(cfg config.ReportConfig, exchange config.ExchangeConfig) *Renderer {
	return &Renderer{cfg: cfg, exchange: exchange}
}

// Render builds the styled workbook in memory. When result is non-nil,
// SKUs the scoring call marked hallucinated are excluded so the export
// only carries rows that exist on the physical shelf.
func (r *Renderer) Render(records model.RecordSet, result *model.EvaluationResult, meta model.Metadata) (*xlsx.File, error) {
	numCol, denomCol, err := formulaRefs()
	if err != nil {
		return nil, err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(r.cfg.SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "report: add sheet")
	}

	r.writeHeader(sheet)

	hallucinated := hallucinatedSet(result)
	rowNum := 2 // first data row; row 1 is the header
	skipped := 0
	for _, rec := range records.Rows {
		if hallucinated[rec.SKUID()] {
			skipped++
			continue
		}
		r.writeDataRow(sheet, rec, meta, rowNum, numCol, denomCol)
		rowNum++
	}
	if skipped > 0 {
		zap.L().Info("excluded hallucinated rows from export", zap.Int("rows", skipped))
	}

	for i, col := range model.Columns {
		width, ok := columnWidths[col.Name]
		if !ok {
			width = 15
		}
		sheet.SetColWidth(i, i, width)
	}

	// Freeze the header row.
	sheet.SheetViews = []xlsx.SheetView{{
		Pane: &xlsx.Pane{
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
			State:       "frozen",
		},
	}}

	return f, nil
}

// RenderToFile renders and saves the workbook. No file is written on
// render failure.
func (r *Renderer) RenderToFile(records model.RecordSet, result *model.EvaluationResult, meta model.Metadata, path string) error {
	f, err := r.Render(records, result, meta)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save workbook")
	}
	zap.L().Info("report written", zap.String("path", path))
	return nil
}

func (r *Renderer) writeHeader(sheet *xlsx.Sheet) {
	style := xlsx.NewStyle()
	style.Fill = *xlsx.NewFill("solid", headerBG, headerBG)
	style.ApplyFill = true
	style.Font = *xlsx.NewFont(r.cfg.FontSize, r.cfg.FontName)
	style.Font.Bold = true
	style.Font.Color = headerFG
	style.ApplyFont = true
	style.Alignment = xlsx.Alignment{Horizontal: "left", Vertical: "center"}
	style.ApplyAlignment = true

	row := sheet.AddRow()
	row.SetHeight(headerRowHeight)
	for _, col := range model.Columns {
		cell := row.AddCell()
		cell.SetString(col.Name)
		cell.SetStyle(style)
	}
}

func (r *Renderer) writeDataRow(sheet *xlsx.Sheet, rec model.Record, meta model.Metadata, rowNum int, numCol, denomCol string) {
	row := sheet.AddRow()
	row.SetHeight(dataRowHeight)
	banded := rowNum%2 == 0

	for _, col := range model.Columns {
		cell := row.AddCell()
		style := r.dataStyle(banded)

		switch {
		case model.FormulaKeys[col.Key]:
			cell.SetFormula(fmt.Sprintf(`IFERROR(%s%d/(%s%d/1000),"")`, numCol, rowNum, denomCol, rowNum))

		case model.MetadataKeys[col.Key]:
			cell.SetString(meta.Value(col.Key))

		default:
			v := r.cellValue(rec, col, meta)
			writeTyped(cell, v, col.Type)

			switch col.Key {
			case "confidence_score":
				if n, ok := asFloat(v); ok {
					style = r.confidenceStyle(n, banded)
				}
			case "stock_status":
				if s, ok := v.(string); ok && s == outOfStock {
					style = r.stockOutStyle(banded)
				}
			}
		}
		cell.SetStyle(style)
	}
}

// cellValue resolves one analysis-supplied cell, deriving Price (EUR)
// from the local price when the analysis didn't provide it.
func (r *Renderer) cellValue(rec model.Record, col model.Column, meta model.Metadata) any {
	v, ok := rec[col.Key]
	if col.Key != "price_eur" || (ok && v != nil) {
		return v
	}
	local, ok := rec.Float("price_local")
	if !ok {
		return nil
	}
	switch meta.Currency {
	case "EUR", "":
		return local
	case "GBP":
		return local * r.exchange.GBPToEUR
	default:
		return nil
	}
}

func writeTyped(cell *xlsx.Cell, v any, colType model.ColumnType) {
	if v == nil {
		cell.SetString("")
		return
	}
	switch colType {
	case model.TypeInteger:
		switch n := v.(type) {
		case int:
			cell.SetInt(n)
		case int64:
			cell.SetInt64(n)
		case float64:
			cell.SetInt(int(n))
		default:
			cell.SetString(fmt.Sprintf("%v", v))
		}
	case model.TypeFloat:
		switch n := v.(type) {
		case float64:
			cell.SetFloat(n)
		case int:
			cell.SetFloat(float64(n))
		default:
			cell.SetString(fmt.Sprintf("%v", v))
		}
	default:
		cell.SetString(fmt.Sprintf("%v", v))
	}
}

func (r *Renderer) baseStyle(banded bool) *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font = *xlsx.NewFont(r.cfg.FontSize, r.cfg.FontName)
	style.ApplyFont = true
	style.Border = *xlsx.NewBorder("thin", "thin", "thin", "thin")
	style.ApplyBorder = true
	style.Alignment = xlsx.Alignment{Vertical: "center"}
	style.ApplyAlignment = true
	if banded {
		style.Fill = *xlsx.NewFill("solid", bandBG, bandBG)
		style.ApplyFill = true
	}
	return style
}

func (r *Renderer) dataStyle(banded bool) *xlsx.Style {
	return r.baseStyle(banded)
}

// confidenceStyle applies the 3-tier coloring rule. Tier boundaries
// come from configuration; the tier fill overrides row banding.
func (r *Renderer) confidenceStyle(score float64, banded bool) *xlsx.Style {
	style := r.baseStyle(banded)
	var bg, fg string
	switch {
	case score >= float64(r.cfg.ConfidenceHighMin):
		bg, fg = highBG, highFG
	case score >= float64(r.cfg.ConfidenceMidMin):
		bg, fg = midBG, midFG
	default:
		bg, fg = lowBG, lowFG
	}
	style.Fill = *xlsx.NewFill("solid", bg, bg)
	style.ApplyFill = true
	style.Font.Color = fg
	return style
}

func (r *Renderer) stockOutStyle(banded bool) *xlsx.Style {
	style := r.baseStyle(banded)
	style.Fill = *xlsx.NewFill("solid", lowBG, lowBG)
	style.ApplyFill = true
	style.Font.Color = lowFG
	style.Font.Bold = true
	return style
}

// formulaRefs resolves the column letters the price-per-liter formula
// references. Failure here is a RenderError: without both references
// the formula cannot be built.
func formulaRefs() (numerator, denominator string, err error) {
	numIdx := model.ColumnIndex("price_eur")
	denomIdx := model.ColumnIndex("packaging_size_ml")
	if numIdx < 0 || denomIdx < 0 {
		return "", "", &RenderError{Msg: "formula column references unresolvable"}
	}
	return columnLetter(numIdx), columnLetter(denomIdx), nil
}

// columnLetter converts a zero-based column index to its A1-style
// letter ("A", "Z", "AA").
func columnLetter(idx int) string {
	letters := ""
	for idx >= 0 {
		letters = string(rune('A'+idx%26)) + letters
		idx = idx/26 - 1
	}
	return letters
}

func hallucinatedSet(result *model.EvaluationResult) map[string]bool {
	if result == nil {
		return nil
	}
	out := make(map[string]bool, len(result.Completeness.Hallucinated))
	for _, ref := range result.Completeness.Hallucinated {
		out[ref.SKUID] = true
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
