// Package adapters turns each jurisdiction's raw statistics files into the
// common tabular shape the population pipeline loads.
package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"pi_monitor_go/services/frame"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

const (
	PropertyFile    = "column_lookup.csv"
	AuthorityFile   = "authorities.csv"
	DescriptionFile = "description.md"

	// DefaultOverallTotalColumn marks rows that carry statistics
	DefaultOverallTotalColumn = "Public Information Requests"
)

// Adapter defines the interface for all jurisdiction-specific parsers
type Adapter interface {
	// Meta returns the static description of the jurisdiction
	Meta() Meta

	// Properties returns the statistic definitions in file order
	Properties() ([]PropertyRow, error)

	// Authorities returns the authority definitions in file order
	Authorities() ([]AuthorityRow, error)

	// Year returns one row per authority for year, or for every year when
	// year is models.AllTimeYear. authorityIDs maps display name to id.
	Year(year int, authorityIDs map[string]string) (*frame.Frame, error)

	// Description returns the sanitized HTML of description.md, "" if absent
	Description() (string, error)
}

// Meta is the static metadata every adapter declares
type Meta struct {
	Slug                string
	Name                string
	Description         string
	StartYear           int
	EndYear             int
	PublicTypes         []string
	PrivateTypes        []string
	DataSource          string
	GeoLabel            string
	AuthorityNameColumn string
	OverallTotalColumn  string
}

// Years returns every declared reporting year in order
func (m Meta) Years() []int {
	var years []int
	for y := m.StartYear; y <= m.EndYear; y++ {
		years = append(years, y)
	}
	return years
}

// PropertyRow is one line of column_lookup.csv
type PropertyRow struct {
	ID          string
	Name        string
	Description string
	ComboOf     string
	Special     string
	ChildOf     string
}

// AuthorityRow is one line of authorities.csv
type AuthorityRow struct {
	Name        string
	Sector      string
	AltNames    []string
	AuthorityID string
	RenderFull  bool
	// ExternalIDs are WhatDoTheyKnow body ids folded into this authority
	ExternalIDs []string
}

// IsSector reports whether the row defines a sector rather than a body
func (a AuthorityRow) IsSector() bool {
	return a.Sector == ""
}

var externalIDColumn = regexp.MustCompile(`^wdtk_id(_\d+)?$`)

// Base provides the file handling shared by all adapters
type Base struct {
	Dir  string
	meta Meta
}

// NewBase creates a base adapter reading from dir
func NewBase(dir string, meta Meta) Base {
	if meta.OverallTotalColumn == "" {
		meta.OverallTotalColumn = DefaultOverallTotalColumn
	}
	return Base{Dir: dir, meta: meta}
}

func (b *Base) Meta() Meta {
	return b.meta
}

// Load reads a resource file relative to the adapter's folder
func (b *Base) Load(name string) (*frame.Frame, error) {
	return frame.Load(filepath.Join(b.Dir, name))
}

func (b *Base) Properties() ([]PropertyRow, error) {
	f, err := b.Load(PropertyFile)
	if err != nil {
		return nil, err
	}
	if err := f.Require("id", "value"); err != nil {
		return nil, fmt.Errorf("%s: %w", PropertyFile, err)
	}

	var rows []PropertyRow
	for _, r := range f.Rows() {
		if r.IsNull("value") {
			continue
		}
		rows = append(rows, PropertyRow{
			ID:          r.String("id"),
			Name:        strings.TrimSpace(r.String("value")),
			Description: strings.TrimSpace(r.String("description")),
			ComboOf:     strings.TrimSpace(r.String("combo_of")),
			Special:     strings.TrimSpace(r.String("special")),
			ChildOf:     strings.TrimSpace(r.String("child_of")),
		})
	}
	return rows, nil
}

func (b *Base) Authorities() ([]AuthorityRow, error) {
	f, err := b.authorityFrame()
	if err != nil {
		return nil, err
	}

	var idColumns []string
	for _, c := range f.Columns() {
		if externalIDColumn.MatchString(c) {
			idColumns = append(idColumns, c)
		}
	}
	sort.Strings(idColumns)

	name := b.meta.AuthorityNameColumn
	var rows []AuthorityRow
	for _, r := range f.Rows() {
		if r.IsNull(name) {
			continue
		}
		row := AuthorityRow{
			Name:        strings.TrimSpace(r.String(name)),
			Sector:      strings.TrimSpace(r.String("sector")),
			AuthorityID: r.String("authority_id"),
			RenderFull:  truthy(r.Get("render_full")),
		}
		for _, alt := range strings.Split(r.String("alt_name"), "|") {
			if alt = strings.TrimSpace(alt); alt != "" {
				row.AltNames = append(row.AltNames, alt)
			}
		}
		for _, c := range idColumns {
			if !r.IsNull(c) {
				row.ExternalIDs = append(row.ExternalIDs, r.String(c))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *Base) authorityFrame() (*frame.Frame, error) {
	f, err := b.Load(AuthorityFile)
	if err != nil {
		return nil, err
	}
	if err := f.Require(b.meta.AuthorityNameColumn, "sector"); err != nil {
		return nil, fmt.Errorf("%s: %w", AuthorityFile, err)
	}
	return f, nil
}

func (b *Base) Description() (string, error) {
	raw, err := os.ReadFile(filepath.Join(b.Dir, DescriptionFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read description: %w", err)
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(raw, &buf); err != nil {
		return "", fmt.Errorf("failed to render description: %w", err)
	}
	return bluemonday.UGCPolicy().Sanitize(buf.String()), nil
}

// Aliases maps every alternate name to its canonical name
type Aliases map[string]string

// NewAliases explodes the alternate names of each authority
func NewAliases(rows []AuthorityRow) Aliases {
	a := make(Aliases)
	for _, r := range rows {
		for _, alt := range r.AltNames {
			a[alt] = r.Name
		}
	}
	return a
}

// Resolve returns the canonical form of name; unknown names map to themselves
func (a Aliases) Resolve(name string) string {
	if canonical, ok := a[name]; ok {
		return canonical
	}
	return name
}

// ZeroIfNone canonicalizes a raw cell to an integer value: missing cells,
// placeholder dashes, blanks and non-numeric text become 0 and numbers are
// truncated.
func ZeroIfNone(v interface{}) int64 {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" || s == "-" || s == "--" {
			return 0
		}
		n, ok := frame.Float(s)
		if !ok {
			return 0
		}
		return int64(n)
	case int:
		return int64(x)
	case int64:
		return x
	default:
		n, ok := frame.Float(v)
		if !ok {
			return 0
		}
		return int64(n)
	}
}

func truthy(v interface{}) bool {
	if frame.IsNull(v) {
		return false
	}
	if n, ok := frame.Float(v); ok {
		return n != 0
	}
	switch strings.ToLower(strings.TrimSpace(frame.String(v))) {
	case "", "false", "no":
		return false
	}
	return true
}
