package adapters

import (
	"testing"

	"pi_monitor_go/models"
	"pi_monitor_go/services/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foisaHeader = "AuthorityName,authority_id,FOISA requests,FOISA - full release,EIR requests,EIRs - full release," +
	"Personal data of the applicant,Third party personal data,Personal data of the applicant,Third party personal data\n"

func TestFoisaYear(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"2019.csv": foisaHeader +
			"Aberdeen City Council,1,100,50,,,3,4,5,6\n" +
			"Scottish Water,2,20,10,5,2,0,0,1,1\n",
		"wdtk_2019.csv": "authority_id,count\n1,12\n",
	})

	df, err := NewFoisaAdapter(dir).Year(2019, nil)
	require.NoError(t, err)
	require.Equal(t, 2, df.Len())

	for _, col := range []string{
		"Personal data of the applicant - FOI",
		"Personal data of the applicant - EIR",
		"Third party personal data - FOI",
		"Third party personal data - EIR",
	} {
		assert.True(t, df.Has(col), col)
	}

	aberdeen := df.Row(0)
	assert.Equal(t, 0.0, aberdeen.Get(colEIRRequests))
	assert.Equal(t, 100.0, aberdeen.Get(colPublicRequests))
	assert.Equal(t, 100.0, aberdeen.Get(colPublicComparison))
	assert.Equal(t, 50.0, aberdeen.Get(colPublicFullRelease))
	assert.Equal(t, 12.0, aberdeen.Get(colWdtkFOI))
	assert.Equal(t, 3.0, aberdeen.Get("Personal data of the applicant - FOI"))
	assert.Equal(t, 5.0, aberdeen.Get("Personal data of the applicant - EIR"))
	assert.Equal(t, 6.0, aberdeen.Get("Third party personal data - EIR"))

	water := df.Row(1)
	assert.Equal(t, 25.0, water.Get(colPublicRequests))
	assert.Equal(t, 12.0, water.Get(colPublicFullRelease))
	assert.Equal(t, 0.0, water.Get(colWdtkFOI))
}

func TestFoisaAllTime(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"all time.csv":      foisaHeader + "Aberdeen City Council,1,700,300,70,30,1,1,1,1\n",
		"wdtk_all time.csv": "authority_id,count\n1,90\n",
	})

	df, err := NewFoisaAdapter(dir).Year(models.AllTimeYear, nil)
	require.NoError(t, err)
	assert.Equal(t, 770.0, df.Get(0, colPublicRequests))
	assert.Equal(t, 90.0, df.Get(0, colWdtkFOI))
}

func TestFoisaYearErrors(t *testing.T) {
	t.Run("Missing tracker file", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{"2018.csv": foisaHeader})
		_, err := NewFoisaAdapter(dir).Year(2018, nil)
		assert.Error(t, err)
	})

	t.Run("Missing request column", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, map[string]string{
			"2018.csv":      "AuthorityName,authority_id,FOISA requests\nA,1,3\n",
			"wdtk_2018.csv": "authority_id,count\n",
		})
		_, err := NewFoisaAdapter(dir).Year(2018, nil)
		assert.ErrorIs(t, err, frame.ErrMissingColumn)
	})
}

func TestSplitColumns(t *testing.T) {
	got := splitColumns([]string{
		"AuthorityName ",
		"personal data of the applicant",
		"Third party personal data",
		"Personal data of the applicant.1",
		"Third party personal data.1",
	})
	assert.Equal(t, []string{
		"AuthorityName",
		"Personal data of the applicant - FOI",
		"Third party personal data - FOI",
		"Personal data of the applicant - EIR",
		"Third party personal data - EIR",
	}, got)
}

func TestFoisaFileLabel(t *testing.T) {
	assert.Equal(t, "2015", FoisaFileLabel(2015))
	assert.Equal(t, "all time", FoisaFileLabel(models.AllTimeYear))
}
