package services

import (
	"bytes"
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ComparisonOpts filters a cross-jurisdiction comparison
type ComparisonOpts struct {
	// Special is the shared property tag, e.g. "PI_ALL"
	Special      string
	Year         *int
	OverallOnly  bool
	Jurisdiction string
}

// ComparisonRow is one value of a property tagged with the requested special
type ComparisonRow struct {
	Jurisdiction string
	Year         int
	YearDisplay  string
	Authority    string
	IsSector     bool
	IsOverall    bool
	Property     string
	Special      string
	Value        float64
	Percentage   float64
}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Comparison returns the values of every property tagged opts.Special,
// ordered by jurisdiction, year, then authority
func Comparison(ctx context.Context, db *gorm.DB, opts ComparisonOpts) ([]ComparisonRow, error) {
	if opts.Special == "" {
		return nil, fmt.Errorf("special tag is required")
	}

	query := builder().Select(
		"j.name AS jurisdiction",
		"y.number AS year",
		"y.display AS year_display",
		"a.name AS authority",
		"a.is_sector AS is_sector",
		"a.is_overall AS is_overall",
		"p.name AS property",
		"p.special AS special",
		"v.value AS value",
		"v.percentage_value AS percentage").
		From("stat_values v").
		Join("properties p ON p.id = v.property_id").
		Join("authorities a ON a.id = v.authority_id").
		Join("years y ON y.id = v.year_id").
		Join("jurisdictions j ON j.id = y.jurisdiction_id").
		Where(sq.Eq{"p.special": opts.Special}).
		OrderBy("j.name", "y.number", "a.is_overall DESC", "a.is_sector DESC", "a.name")

	if opts.Year != nil {
		query = query.Where(sq.Eq{"y.number": *opts.Year})
	}
	if opts.OverallOnly {
		query = query.Where(sq.Eq{"a.is_overall": true})
	}
	if opts.Jurisdiction != "" {
		query = query.Where(sq.Eq{"j.slug": opts.Jurisdiction})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build comparison query: %w", err)
	}

	var rows []ComparisonRow
	if err := db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to run comparison query: %w", err)
	}
	return rows, nil
}

var comparisonHeaders = []string{"Year", "Authority", "Kind", "Property", "Value", "Percentage"}

// BuildComparisonWorkbook renders rows with one sheet per jurisdiction
func BuildComparisonWorkbook(rows []ComparisonRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	percentStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 10})

	next := make(map[string]int)
	first := true
	for _, r := range rows {
		sheet := sheetName(r.Jurisdiction)
		if _, ok := next[sheet]; !ok {
			if first {
				f.SetSheetName("Sheet1", sheet)
				first = false
			} else if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("failed to add sheet: %w", err)
			}
			if err := f.SetSheetRow(sheet, "A1", &comparisonHeaders); err != nil {
				return nil, err
			}
			f.SetCellStyle(sheet, "A1", "F1", headerStyle)
			f.SetColWidth(sheet, "B", "B", 45)
			f.SetColWidth(sheet, "D", "D", 40)
			next[sheet] = 2
		}

		row := next[sheet]
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{r.YearDisplay, r.Authority, authorityKind(r), r.Property, r.Value, r.Percentage}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
		pct, _ := excelize.CoordinatesToCellName(6, row)
		f.SetCellStyle(sheet, pct, pct, percentStyle)
		next[sheet] = row + 1
	}

	if first {
		if err := f.SetSheetRow("Sheet1", "A1", &comparisonHeaders); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

func authorityKind(r ComparisonRow) string {
	switch {
	case r.IsOverall:
		return "Overall"
	case r.IsSector:
		return "Sector"
	default:
		return "Authority"
	}
}

// sheetName trims a jurisdiction name to what Excel accepts
func sheetName(name string) string {
	clean := []rune{}
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		clean = append(clean, r)
	}
	if len(clean) > 31 {
		clean = clean[:31]
	}
	if len(clean) == 0 {
		return "Jurisdiction"
	}
	return string(clean)
}
