package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"pi_monitor_go/models"
	"pi_monitor_go/services/adapters"
	"pi_monitor_go/services/frame"

	"github.com/sirupsen/logrus"
)

// WdtkRequestFile is the WhatDoTheyKnow request dump counts are built from
const WdtkRequestFile = "info_request.csv"

// WdtkCountFile is the name of the per-year count file the adapters read
func WdtkCountFile(year int) string {
	return "wdtk_" + adapters.FoisaFileLabel(year) + ".csv"
}

// GenerateWdtkCounts counts tracker requests per authority for every year of
// the adapter and for all time, writing one file per year into dir.
// Requests for bodies no authority claims are ignored.
func GenerateWdtkCounts(a adapters.Adapter, dir string, log *logrus.Logger) ([]string, error) {
	auths, err := a.Authorities()
	if err != nil {
		return nil, err
	}
	external := make(map[string]string)
	for _, auth := range auths {
		for _, id := range auth.ExternalIDs {
			external[id] = auth.AuthorityID
		}
	}

	requests, err := frame.Load(filepath.Join(dir, WdtkRequestFile))
	if err != nil {
		return nil, err
	}
	if err := requests.Require("public_body_id", "date_part"); err != nil {
		return nil, fmt.Errorf("%s: %w", WdtkRequestFile, err)
	}

	years := append(a.Meta().Years(), models.AllTimeYear)
	var written []string
	for _, year := range years {
		var order []string
		counts := make(map[string]int)
		for _, r := range requests.Rows() {
			if year != models.AllTimeYear && r.String("date_part") != strconv.Itoa(year) {
				continue
			}
			id, ok := external[r.String("public_body_id")]
			if !ok || id == "" {
				continue
			}
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}

		label := strconv.Itoa(year)
		if year == models.AllTimeYear {
			label = models.AllTimeSlug
		}
		path := filepath.Join(dir, WdtkCountFile(year))
		if err := writeCounts(path, label, order, counts); err != nil {
			return written, err
		}
		log.WithFields(logrus.Fields{
			"jurisdiction": a.Meta().Slug,
			"year":         label,
			"authorities":  len(order),
		}).Info("Wrote tracker counts")
		written = append(written, path)
	}
	return written, nil
}

func writeCounts(path, year string, order []string, counts map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"authority_id", "year", "count"}}
	for _, id := range order {
		rows = append(rows, []string{id, year, strconv.Itoa(counts[id])})
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
