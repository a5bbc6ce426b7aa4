package adapters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pi_monitor_go/models"
	"pi_monitor_go/services/frame"
)

const (
	FoisaSlug = "foisa"

	foisaAllTimeLabel = "all time"
)

// FOISA column names
const (
	colFoisaRequests     = "FOISA requests"
	colFoisaFullRelease  = "FOISA - full release"
	colEIRRequests       = "EIR requests"
	colEIRFullRelease    = "EIRs - full release"
	colPublicComparison  = "Public Information Requests (comparison)"
	colPublicFullRelease = "Public Information Requests - full release"
	colWdtkFOI           = "WDTK FOI requests"
	colAuthorityID       = "authority_id"
)

// columns that appear once per request type, FOI first then EIR
var splitByRequestType = []string{
	"Personal data of the applicant",
	"Third party personal data",
}

var mangledSuffix = regexp.MustCompile(`\.\d+$`)

// FoisaAdapter reads the yearly returns published by the Scottish
// Information Commissioner
type FoisaAdapter struct {
	Base
}

// NewFoisaAdapter creates a new instance reading from dir
func NewFoisaAdapter(dir string) *FoisaAdapter {
	return &FoisaAdapter{
		Base: NewBase(dir, Meta{
			Slug:                FoisaSlug,
			Name:                "Scotland Information Request Statistics",
			Description:         "Statistics of FOI, EIR and SAR for public authorities in Scotland (collected by OSIC)",
			StartYear:           2013,
			EndYear:             2019,
			PublicTypes:         []string{"FOI", "EIR"},
			PrivateTypes:        []string{"SAR"},
			AuthorityNameColumn: "AuthorityName",
		}),
	}
}

// FoisaFileLabel is the file name stem used for a year's resources
func FoisaFileLabel(year int) string {
	if year == models.AllTimeYear {
		return foisaAllTimeLabel
	}
	return strconv.Itoa(year)
}

func (f *FoisaAdapter) Year(year int, authorityIDs map[string]string) (*frame.Frame, error) {
	label := FoisaFileLabel(year)
	name := label + ".csv"

	df, err := f.Load(name)
	if err != nil {
		return nil, err
	}
	if err := df.Require(colFoisaRequests, colFoisaFullRelease, colEIRRequests, colEIRFullRelease, colAuthorityID); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	// tracker ids were already mapped to FOISA authority ids
	wdtkFrame, err := f.Load("wdtk_" + label + ".csv")
	if err != nil {
		return nil, err
	}
	wdtk, err := wdtkFrame.ToMap(colAuthorityID, "count")
	if err != nil {
		return nil, fmt.Errorf("wdtk_%s.csv: %w", label, err)
	}

	df.FillNull(0.0, colEIRRequests, colEIRFullRelease, colFoisaRequests, colFoisaFullRelease)

	df.Derive(colPublicRequests, func(r frame.Row) interface{} {
		return r.Number(colFoisaRequests) + r.Number(colEIRRequests)
	})
	df.Derive(colPublicComparison, func(r frame.Row) interface{} {
		return r.Get(colPublicRequests)
	})
	df.Derive(colPublicFullRelease, func(r frame.Row) interface{} {
		return r.Number(colFoisaFullRelease) + r.Number(colEIRFullRelease)
	})
	df.Derive(colWdtkFOI, func(r frame.Row) interface{} {
		n, _ := frame.Float(wdtk[r.String(colAuthorityID)])
		return n
	})

	if err := df.SetColumns(splitColumns(df.Columns())); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return df, nil
}

// splitColumns names repeated per-request-type columns "<name> - FOI" and
// "<name> - EIR" in encounter order
func splitColumns(columns []string) []string {
	seen := make(map[string]bool)
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = strings.TrimSpace(col)
		base := strings.ToLower(strings.TrimSpace(mangledSuffix.ReplaceAllString(col, "")))
		for _, split := range splitByRequestType {
			if base != strings.ToLower(split) {
				continue
			}
			if seen[split] {
				out[i] = split + " - EIR"
			} else {
				out[i] = split + " - FOI"
				seen[split] = true
			}
		}
	}
	return out
}
