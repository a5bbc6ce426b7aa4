package services

import (
	"os"
	"path/filepath"
	"testing"

	"pi_monitor_go/models"
	"pi_monitor_go/services/adapters"
	"pi_monitor_go/services/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWdtkCounts(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		adapters.AuthorityFile: "AuthorityName,sector,authority_id,render_full,wdtk_id_1,wdtk_id_2\n" +
			"Councils,,100,0,,\n" +
			"Aberdeen City Council,Councils,1,1,11,12\n" +
			"Fife Council,Councils,2,1,21,\n",
		WdtkRequestFile: "id,public_body_id,date_part\n" +
			"1,11,2013\n" +
			"2,12,2013\n" +
			"3,21,2014\n" +
			"4,99,2013\n" +
			"5,11,2019\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	a := adapters.NewFoisaAdapter(dir)
	written, err := GenerateWdtkCounts(a, dir, quietLogger())
	require.NoError(t, err)
	assert.Len(t, written, 8)

	y2013, err := frame.Load(filepath.Join(dir, WdtkCountFile(2013)))
	require.NoError(t, err)
	counts, err := y2013.ToMap("authority_id", "count")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "2"}, counts)

	all, err := frame.Load(filepath.Join(dir, WdtkCountFile(models.AllTimeYear)))
	require.NoError(t, err)
	counts, err = all.ToMap("authority_id", "count")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "3", "2": "1"}, counts)
	assert.Equal(t, models.AllTimeSlug, all.Get(0, "year"))

	y2016, err := frame.Load(filepath.Join(dir, WdtkCountFile(2016)))
	require.NoError(t, err)
	assert.Zero(t, y2016.Len())
	assert.Equal(t, "wdtk_all time.csv", WdtkCountFile(models.AllTimeYear))
}

func TestGenerateWdtkCountsMissingDump(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, adapters.AuthorityFile), []byte("AuthorityName,sector\nA,\n"), 0644))

	_, err := GenerateWdtkCounts(adapters.NewFoisaAdapter(dir), dir, quietLogger())
	assert.Error(t, err)
}
