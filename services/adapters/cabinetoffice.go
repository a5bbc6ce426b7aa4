package adapters

import (
	"fmt"

	"pi_monitor_go/models"
	"pi_monitor_go/services/frame"
)

const (
	CabinetSlug = "cabinetfoi"

	cabinetFile     = "foi-statistics-q4-2019-and-annual-published-data2.csv"
	cabinetWdtkFile = "wdtk_year_count.csv"
	cabinetBody     = "Government body"
	cabinetSector   = "Sector"
	homeOffice      = "Home Office"
)

// Cabinet Office column names
const (
	colQuarter        = "Quarter"
	colYear           = "year"
	colTotalReceived  = "Total requests received"
	colGrantedInFull  = "Initial Outcome Granted in full"
	colDeadlineMet    = "20-day deadline met"
	colExtension      = "Permitted extension to 20-day deadline"
	colWdtk           = "WhatDoTheyKnow requests"
	colWdtkWithoutHO  = "WhatDoTheyKnow requests (without Home Office)"
	colAllRequests    = "All requests"
	colPIRGranted     = "Public Information Requests - Granted in full"
	colOnTime         = "On time (including extentions)"
	colPublicRequests = DefaultOverallTotalColumn
)

// CabinetAdapter reads the Cabinet Office quarterly and annual FOI release
type CabinetAdapter struct {
	Base
}

// NewCabinetAdapter creates a new instance reading from dir
func NewCabinetAdapter(dir string) *CabinetAdapter {
	return &CabinetAdapter{
		Base: NewBase(dir, Meta{
			Slug:                CabinetSlug,
			Name:                "Cabinet Office FOI",
			Description:         "UK central government figures (collected and released by Cabinet Office)",
			StartYear:           2010,
			EndYear:             2019,
			PublicTypes:         []string{"FOI"},
			DataSource:          "Cabinet Office FOI statistics",
			GeoLabel:            "UK goverment",
			AuthorityNameColumn: cabinetBody,
		}),
	}
}

func (c *CabinetAdapter) Year(year int, authorityIDs map[string]string) (*frame.Frame, error) {
	df, err := c.Load(cabinetFile)
	if err != nil {
		return nil, err
	}
	df.Rename(map[string]string{`Total "resolvable" requests`: "Total resolvable requests"})
	if err := df.Require(colQuarter, cabinetBody, colTotalReceived, colGrantedInFull, colDeadlineMet, colExtension); err != nil {
		return nil, fmt.Errorf("%s: %w", cabinetFile, err)
	}

	var numeric []string
	for _, col := range df.Columns() {
		if col != colQuarter && col != cabinetBody {
			numeric = append(numeric, col)
		}
	}

	// quarterly rows have labels like "Q1 2019" and drop out here
	df.Derive(colYear, func(r frame.Row) interface{} {
		if n, ok := frame.Float(r.Get(colQuarter)); ok {
			return n
		}
		return nil
	})
	df = df.Filter(func(r frame.Row) bool {
		if r.IsNull(colYear) {
			return false
		}
		return year == models.AllTimeYear || r.Number(colYear) == float64(year)
	})

	authorities, err := c.Authorities()
	if err != nil {
		return nil, err
	}
	aliases := NewAliases(authorities)
	sectors := make(map[string]string, len(authorities))
	external := make(map[string]string)
	for _, a := range authorities {
		sectors[a.Name] = a.Sector
		for _, id := range a.ExternalIDs {
			external[id] = a.Name
		}
	}

	if err := df.Replace(numeric, []string{"-", " "}, 0.0); err != nil {
		return nil, err
	}
	if err := df.ToNumeric(numeric...); err != nil {
		return nil, err
	}

	df.Derive(cabinetBody, func(r frame.Row) interface{} {
		return aliases.Resolve(r.String(cabinetBody))
	})
	df.Derive(cabinetSector, func(r frame.Row) interface{} {
		return sectorCell(sectors, r.String(cabinetBody))
	})

	wdtk, err := c.wdtkCounts(external)
	if err != nil {
		return nil, err
	}
	df, err = df.LeftJoin(wdtk, []string{colYear, cabinetBody}, 0.0)
	if err != nil {
		return nil, err
	}

	df.Derive(colAllRequests, func(r frame.Row) interface{} { return r.Get(colTotalReceived) })
	df.Derive(colPIRGranted, func(r frame.Row) interface{} { return r.Get(colGrantedInFull) })
	df.Derive(colPublicRequests, func(r frame.Row) interface{} { return r.Get(colTotalReceived) })
	df.Derive(colOnTime, func(r frame.Row) interface{} {
		met, ok1 := frame.Float(r.Get(colDeadlineMet))
		ext, ok2 := frame.Float(r.Get(colExtension))
		if !ok1 || !ok2 {
			return nil
		}
		return met + ext
	})
	df.Derive(colWdtkWithoutHO, func(r frame.Row) interface{} {
		if r.String(cabinetBody) == homeOffice {
			return 0.0
		}
		return r.Get(colWdtk)
	})

	if year != models.AllTimeYear {
		return df, nil
	}

	var sums []string
	for _, col := range df.Columns() {
		if col != colQuarter && col != cabinetBody && col != cabinetSector {
			sums = append(sums, col)
		}
	}
	total, err := df.SumBy([]string{cabinetBody}, sums)
	if err != nil {
		return nil, err
	}
	total.Derive(cabinetSector, func(r frame.Row) interface{} {
		return sectorCell(sectors, r.String(cabinetBody))
	})
	return total, nil
}

// wdtkCounts sums tracker requests per body and year. Several tracker ids
// may fold into one body; ids without a body are dropped.
func (c *CabinetAdapter) wdtkCounts(external map[string]string) (*frame.Frame, error) {
	raw, err := c.Load(cabinetWdtkFile)
	if err != nil {
		return nil, err
	}
	if err := raw.Require("public_body_id", colYear, "count"); err != nil {
		return nil, fmt.Errorf("%s: %w", cabinetWdtkFile, err)
	}
	raw.Derive(cabinetBody, func(r frame.Row) interface{} {
		if body, ok := external[r.String("public_body_id")]; ok {
			return body
		}
		return nil
	})
	raw = raw.Filter(func(r frame.Row) bool { return !r.IsNull(cabinetBody) })

	counts, err := raw.SumBy([]string{colYear, cabinetBody}, []string{"count"})
	if err != nil {
		return nil, err
	}
	counts.Rename(map[string]string{"count": colWdtk})
	return counts, nil
}

func sectorCell(sectors map[string]string, name string) interface{} {
	if s, ok := sectors[name]; ok && s != "" {
		return s
	}
	return nil
}
