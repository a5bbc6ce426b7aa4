package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setTestEnv(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "pi.db"))
	t.Setenv("RESOURCES_DIR", filepath.Join(dir, "resources"))
	t.Setenv("PI_ADAPTERS", "foisa,cabinetfoi")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_DIR", "")
	return dir
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"populate", "adapters", "wdtk-counts", "export", "sync-resources", "schedule"} {
		assert.True(t, names[want], want)
	}
}

func TestArgumentValidation(t *testing.T) {
	setTestEnv(t)

	_, err := execute("export")
	assert.ErrorContains(t, err, "special")

	_, err = execute("wdtk-counts")
	assert.Error(t, err)

	_, err = execute("populate", "extra")
	assert.Error(t, err)
}

func TestAdaptersCommand(t *testing.T) {
	dir := setTestEnv(t)

	out, err := execute("adapters")
	require.NoError(t, err)
	assert.Contains(t, out, "foisa")
	assert.Contains(t, out, "cabinetfoi")
	assert.Contains(t, out, "2013-2019")
	assert.Contains(t, out, filepath.Join(dir, "resources", "foisa"))
}

func TestUnknownAdapterFails(t *testing.T) {
	setTestEnv(t)
	t.Setenv("PI_ADAPTERS", "atlantis")

	_, err := execute("adapters")
	assert.ErrorContains(t, err, "atlantis")
}

func TestSyncResourcesNeedsBucket(t *testing.T) {
	setTestEnv(t)
	t.Setenv("R2_BUCKET_NAME", "")

	_, err := execute("sync-resources")
	assert.ErrorContains(t, err, "not configured")
}

func TestExportEmptyDatabase(t *testing.T) {
	dir := setTestEnv(t)
	out := filepath.Join(dir, "comparison.xlsx")

	_, err := execute("export", "--special", "PI_ALL", "--year", "9999", "--out", out)
	require.NoError(t, err)

	_, err = os.Stat(out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "Year", rows[0][0])
}
