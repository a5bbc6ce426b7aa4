package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"pi_monitor_go/models"
	"pi_monitor_go/services/adapters"
	"pi_monitor_go/services/frame"
	"pi_monitor_go/services/rules"
	"pi_monitor_go/services/slug"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Populator rebuilds jurisdictions from their adapters
type Populator struct {
	db             *gorm.DB
	registry       *adapters.Registry
	log            *logrus.Logger
	rules          *rules.Interpreter
	batchSize      int
	valueBatchSize int
}

// PopulateResult summarizes a population run
type PopulateResult struct {
	RunID         string
	Jurisdictions int
	Years         int
	Values        int
}

// NewPopulator creates a populator writing through db
func NewPopulator(db *gorm.DB, registry *adapters.Registry, log *logrus.Logger, batchSize, valueBatchSize int) (*Populator, error) {
	interp, err := rules.NewInterpreter()
	if err != nil {
		return nil, err
	}
	return &Populator{
		db:             db,
		registry:       registry,
		log:            log,
		rules:          interp,
		batchSize:      batchSize,
		valueBatchSize: valueBatchSize,
	}, nil
}

// Populate deletes every jurisdiction and rebuilds each registered one.
// A failure stops the run; jurisdictions already rebuilt stay in place.
func (p *Populator) Populate(ctx context.Context) (*PopulateResult, error) {
	result := &PopulateResult{RunID: uuid.New().String()}
	p.log.WithField("run_id", result.RunID).Info("Starting population")

	if err := p.deleteAll(ctx); err != nil {
		return result, err
	}

	for _, a := range p.registry.Adapters() {
		j, stats, err := p.populateJurisdiction(ctx, a, result.RunID)
		if err != nil {
			return result, fmt.Errorf("failed to populate %s: %w", a.Meta().Slug, err)
		}
		result.Jurisdictions++
		result.Years += stats.years
		result.Values += stats.values
		p.log.WithFields(logrus.Fields{
			"jurisdiction": j.Slug,
			"years":        stats.years,
			"values":       stats.values,
		}).Info("Jurisdiction populated")
	}
	return result, nil
}

// PopulateJurisdiction rebuilds the jurisdiction for one registered slug
func (p *Populator) PopulateJurisdiction(ctx context.Context, jurisdictionSlug string) (*models.Jurisdiction, error) {
	a, err := p.registry.Get(jurisdictionSlug)
	if err != nil {
		return nil, err
	}
	j, _, err := p.populateJurisdiction(ctx, a, uuid.New().String())
	return j, err
}

type populateStats struct {
	years  int
	values int
}

func (p *Populator) populateJurisdiction(ctx context.Context, a adapters.Adapter, runID string) (*models.Jurisdiction, populateStats, error) {
	var stats populateStats
	meta := a.Meta()

	var existing models.Jurisdiction
	err := p.db.WithContext(ctx).Where("slug = ?", meta.Slug).First(&existing).Error
	if err == nil {
		if err := p.deleteJurisdiction(ctx, existing.ID); err != nil {
			return nil, stats, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, stats, fmt.Errorf("failed to look up jurisdiction: %w", err)
	}

	description, err := a.Description()
	if err != nil {
		return nil, stats, err
	}

	j := &models.Jurisdiction{
		Name:            meta.Name,
		Slug:            meta.Slug,
		Description:     meta.Description,
		LongDescription: description,
		DataSource:      meta.DataSource,
		GeoLabel:        meta.GeoLabel,
		StartYear:       meta.StartYear,
		EndYear:         meta.EndYear,
		PublicTypes:     strings.Join(meta.PublicTypes, ","),
		PrivateTypes:    strings.Join(meta.PrivateTypes, ","),
		RunID:           runID,
	}
	if err := p.db.WithContext(ctx).Create(j).Error; err != nil {
		return nil, stats, fmt.Errorf("failed to create jurisdiction: %w", err)
	}

	if err := p.populateProperties(ctx, j, a); err != nil {
		return nil, stats, err
	}
	if err := p.populateAuthorities(ctx, j, a); err != nil {
		return nil, stats, err
	}
	years, err := p.populateYears(ctx, j)
	if err != nil {
		return nil, stats, err
	}
	for i := range years {
		n, err := p.LoadYear(ctx, a, &years[i])
		if err != nil {
			return nil, stats, fmt.Errorf("failed to load year %s: %w", years[i].Display, err)
		}
		stats.years++
		stats.values += n
	}
	return j, stats, nil
}

func (p *Populator) populateProperties(ctx context.Context, j *models.Jurisdiction, a adapters.Adapter) error {
	rows, err := a.Properties()
	if err != nil {
		return err
	}

	props := make([]models.Property, len(rows))
	nameToIndex := make(map[string]int, len(rows))
	for i, r := range rows {
		props[i] = models.Property{
			ID:             uuid.New().String(),
			JurisdictionID: j.ID,
			LocalID:        r.ID,
			Name:           r.Name,
			Slug:           slug.Underscore(r.Name),
			Description:    r.Description,
		}
		if r.ComboOf != "" {
			rule, err := rules.Parse(r.ComboOf)
			if err != nil {
				return fmt.Errorf("property %q: %w", r.Name, err)
			}
			if err := p.rules.Check(rule); err != nil {
				return fmt.Errorf("property %q: %w", r.Name, err)
			}
			dynamic := rule.Source()
			props[i].Dynamic = &dynamic
		}
		if r.Special != "" {
			special := r.Special
			props[i].Special = &special
		}
		if _, dup := nameToIndex[r.Name]; !dup {
			nameToIndex[r.Name] = i
		}
	}

	// parents resolve by name whatever order the rows come in
	parent := make([]int, len(rows))
	for i, r := range rows {
		parent[i] = -1
		if r.ChildOf == "" {
			continue
		}
		pi, ok := nameToIndex[r.ChildOf]
		if !ok {
			return fmt.Errorf("property %q: unknown parent %q", r.Name, r.ChildOf)
		}
		parent[i] = pi
		props[i].ChildOfID = &props[pi].ID
	}

	depth := make([]int, len(rows))
	for i := range rows {
		d, cur := 0, i
		for parent[cur] >= 0 {
			cur = parent[cur]
			d++
			if d > len(rows) {
				return fmt.Errorf("property %q: parent cycle", rows[i].Name)
			}
		}
		depth[i] = d
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool { return depth[order[x]] < depth[order[y]] })

	queue := NewBulkQueue[models.Property](p.db, p.batchSize)
	for _, i := range order {
		queue.Add(props[i])
	}
	if _, err := queue.Flush(ctx); err != nil {
		return fmt.Errorf("failed to save properties: %w", err)
	}
	return nil
}

func (p *Populator) populateAuthorities(ctx context.Context, j *models.Jurisdiction, a adapters.Adapter) error {
	rows, err := a.Authorities()
	if err != nil {
		return err
	}

	overall := &models.Authority{
		JurisdictionID: j.ID,
		Name:           models.OverallAuthorityName,
		Slug:           slug.Make(models.OverallAuthorityName),
		IsOverall:      true,
	}
	if err := p.db.WithContext(ctx).Create(overall).Error; err != nil {
		return fmt.Errorf("failed to create overall authority: %w", err)
	}

	queue := NewBulkQueue[models.Authority](p.db, p.batchSize)
	for _, r := range rows {
		if !r.IsSector() {
			continue
		}
		queue.Add(models.Authority{
			JurisdictionID: j.ID,
			Name:           r.Name,
			Slug:           slug.Make(r.Name),
			LocalID:        r.AuthorityID,
			RenderFull:     r.RenderFull,
			IsSector:       true,
			SectorID:       &overall.ID,
		})
	}
	sectors, err := queue.Flush(ctx)
	if err != nil {
		return fmt.Errorf("failed to save sectors: %w", err)
	}
	sectorIDs := make(map[string]string, len(sectors))
	for _, s := range sectors {
		sectorIDs[s.Name] = s.ID
	}

	for _, r := range rows {
		if r.IsSector() {
			continue
		}
		sectorID, ok := sectorIDs[r.Sector]
		if !ok {
			return fmt.Errorf("authority %q: unknown sector %q", r.Name, r.Sector)
		}
		queue.Add(models.Authority{
			JurisdictionID: j.ID,
			Name:           r.Name,
			Slug:           slug.Make(r.Name),
			LocalID:        r.AuthorityID,
			RenderFull:     r.RenderFull,
			SectorID:       &sectorID,
		})
	}
	if _, err := queue.Flush(ctx); err != nil {
		return fmt.Errorf("failed to save authorities: %w", err)
	}
	return nil
}

func (p *Populator) populateYears(ctx context.Context, j *models.Jurisdiction) ([]models.Year, error) {
	var numbers []int
	for y := j.StartYear; y <= j.EndYear; y++ {
		numbers = append(numbers, y)
	}
	numbers = append(numbers, models.AllTimeYear)

	queue := NewBulkQueue[models.Year](p.db, p.batchSize)
	for _, n := range numbers {
		queue.Add(models.NewYear(j.ID, n))
	}
	years, err := queue.Flush(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to save years: %w", err)
	}
	return years, nil
}

func (p *Populator) deleteAll(ctx context.Context) error {
	tx := p.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{&models.Value{}, &models.Year{}, &models.Authority{}, &models.Property{}, &models.Jurisdiction{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", m, err)
		}
	}
	return nil
}

func (p *Populator) deleteJurisdiction(ctx context.Context, id string) error {
	db := p.db.WithContext(ctx)
	years := db.Model(&models.Year{}).Select("id").Where("jurisdiction_id = ?", id)
	if err := db.Where("year_id IN (?)", years).Delete(&models.Value{}).Error; err != nil {
		return fmt.Errorf("failed to delete values: %w", err)
	}
	for _, m := range []interface{}{&models.Year{}, &models.Authority{}, &models.Property{}} {
		if err := db.Where("jurisdiction_id = ?", id).Delete(m).Error; err != nil {
			return fmt.Errorf("failed to delete %T: %w", m, err)
		}
	}
	if err := db.Where("id = ?", id).Delete(&models.Jurisdiction{}).Error; err != nil {
		return fmt.Errorf("failed to delete jurisdiction: %w", err)
	}
	return nil
}

// LoadYear replaces every value of year with the adapter's figures and
// returns how many values were written
func (p *Populator) LoadYear(ctx context.Context, a adapters.Adapter, year *models.Year) (int, error) {
	meta := a.Meta()
	db := p.db.WithContext(ctx)
	logger := p.log.WithFields(logrus.Fields{"jurisdiction": meta.Slug, "year": year.Display})

	var authorities []models.Authority
	if err := db.Where("jurisdiction_id = ?", year.JurisdictionID).Order("name").Find(&authorities).Error; err != nil {
		return 0, fmt.Errorf("failed to load authorities: %w", err)
	}
	var properties []models.Property
	if err := db.Where("jurisdiction_id = ?", year.JurisdictionID).Order("local_id").Find(&properties).Error; err != nil {
		return 0, fmt.Errorf("failed to load properties: %w", err)
	}

	authorityIDs := make(map[string]string, len(authorities))
	bodies := make(map[string]*models.Authority)
	var groups []*models.Authority
	for i := range authorities {
		auth := &authorities[i]
		authorityIDs[auth.Name] = auth.ID
		if auth.IsBody() {
			bodies[auth.Name] = auth
		} else {
			groups = append(groups, auth)
		}
	}

	var normal, dynamic []*models.Property
	children := make(map[string][]string)
	for i := range properties {
		prop := &properties[i]
		if prop.IsDynamic() {
			dynamic = append(dynamic, prop)
		} else {
			normal = append(normal, prop)
		}
		if prop.ChildOfID != nil {
			children[*prop.ChildOfID] = append(children[*prop.ChildOfID], prop.ID)
		}
	}

	df, err := a.Year(year.Number, authorityIDs)
	if err != nil {
		return 0, err
	}
	required := []string{meta.AuthorityNameColumn, meta.OverallTotalColumn}
	for _, prop := range normal {
		required = append(required, prop.Name)
	}
	if err := df.Require(required...); err != nil {
		return 0, err
	}

	if err := db.Where("year_id = ?", year.ID).Delete(&models.Value{}).Error; err != nil {
		return 0, fmt.Errorf("failed to clear values: %w", err)
	}

	// ordinary values, one per recognized body and property
	values := NewBulkQueue[models.Value](p.db, p.valueBatchSize)
	staged := make(map[string][]frame.Row)
	seen := make(map[string]bool)
	for _, r := range df.Rows() {
		if r.IsNull(meta.OverallTotalColumn) {
			continue
		}
		name := r.String(meta.AuthorityNameColumn)
		body, ok := bodies[name]
		if !ok || body.SectorID == nil {
			continue
		}
		if seen[body.ID] {
			logger.WithField("authority", name).Warn("Skipping repeated row")
			continue
		}
		seen[body.ID] = true
		staged[*body.SectorID] = append(staged[*body.SectorID], r)
		staged[""] = append(staged[""], r)
		for _, prop := range normal {
			values.Add(models.Value{
				AuthorityID: body.ID,
				PropertyID:  prop.ID,
				YearID:      year.ID,
				Value:       float64(adapters.ZeroIfNone(r.Get(prop.Name))),
			})
		}
	}

	logger.Debug("Generating sector values")
	for _, group := range groups {
		key := group.ID
		if group.IsOverall {
			key = ""
		}
		for _, prop := range normal {
			total := decimal.Zero
			for _, r := range staged[key] {
				if n, ok := frame.Float(r.Get(prop.Name)); ok {
					total = total.Add(decimal.NewFromFloat(n))
				}
			}
			values.Add(models.Value{
				AuthorityID: group.ID,
				PropertyID:  prop.ID,
				YearID:      year.ID,
				Value:       total.InexactFloat64(),
			})
		}
	}

	logger.Infof("saving %d of Value", values.Len())
	ordinary, err := values.Flush(ctx)
	if err != nil {
		return 0, err
	}

	byAuthority := make(map[string]map[string]float64)
	for _, v := range ordinary {
		if byAuthority[v.AuthorityID] == nil {
			byAuthority[v.AuthorityID] = make(map[string]float64)
		}
		byAuthority[v.AuthorityID][v.PropertyID] = v.Value
	}

	logger.Debug("Calculating dynamic values")
	for _, auth := range authorities {
		lookup, ok := byAuthority[auth.ID]
		if !ok {
			continue
		}
		slugs := make(map[string]float64, len(lookup))
		for _, prop := range properties {
			if v, ok := lookup[prop.ID]; ok {
				slugs[prop.Slug] = v
			}
		}
		for _, prop := range dynamic {
			rule, err := rules.Parse(*prop.Dynamic)
			if err != nil {
				return 0, fmt.Errorf("property %q: %w", prop.Name, err)
			}
			v, err := p.rules.Eval(rule, rules.Input{
				Children: children[prop.ID],
				Values:   lookup,
				Slugs:    slugs,
			})
			if err != nil {
				return 0, fmt.Errorf("property %q for %q: %w", prop.Name, auth.Name, err)
			}
			values.Add(models.Value{
				AuthorityID: auth.ID,
				PropertyID:  prop.ID,
				YearID:      year.ID,
				Value:       v,
			})
		}
	}
	combo, err := values.Flush(ctx)
	if err != nil {
		return 0, err
	}

	all := make(map[string]map[string]*models.Value)
	for _, batch := range [][]models.Value{ordinary, combo} {
		for i := range batch {
			v := &batch[i]
			if all[v.AuthorityID] == nil {
				all[v.AuthorityID] = make(map[string]*models.Value)
			}
			all[v.AuthorityID][v.PropertyID] = v
		}
	}

	for _, auth := range authorities {
		lookup, ok := all[auth.ID]
		if !ok {
			continue
		}
		for _, prop := range properties {
			if prop.ChildOfID == nil {
				continue
			}
			base, ok := lookup[prop.ID]
			if !ok {
				continue
			}
			base.PercentageValue = Percentage(base.Value, lookup[*prop.ChildOfID])
			values.Add(*base)
		}
	}
	if _, err := values.FlushUpdate(ctx, "percentage_value"); err != nil {
		return 0, err
	}

	return len(ordinary) + len(combo), nil
}

// Percentage is value as a 0..1 share of its parent, 0 when the parent is
// missing or zero
func Percentage(value float64, parent *models.Value) float64 {
	if parent == nil || parent.Value == 0 {
		return 0
	}
	return value / parent.Value
}
