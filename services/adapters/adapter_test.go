package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"pi_monitor_go/services/frame"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Meta() Meta {
	args := m.Called()
	return args.Get(0).(Meta)
}

func (m *MockAdapter) Properties() ([]PropertyRow, error) {
	args := m.Called()
	return args.Get(0).([]PropertyRow), args.Error(1)
}

func (m *MockAdapter) Authorities() ([]AuthorityRow, error) {
	args := m.Called()
	return args.Get(0).([]AuthorityRow), args.Error(1)
}

func (m *MockAdapter) Year(year int, authorityIDs map[string]string) (*frame.Frame, error) {
	args := m.Called(year, authorityIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*frame.Frame), args.Error(1)
}

func (m *MockAdapter) Description() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

type dirLocator string

func (d dirLocator) Dir(slug string) string {
	return filepath.Join(string(d), slug)
}

func TestRegistry(t *testing.T) {
	t.Run("Registration order and lookup", func(t *testing.T) {
		first := new(MockAdapter)
		first.On("Meta").Return(Meta{Slug: "first"})
		second := new(MockAdapter)
		second.On("Meta").Return(Meta{Slug: "second"})

		reg := NewRegistry()
		require.NoError(t, reg.Register(second))
		require.NoError(t, reg.Register(first))

		got, err := reg.Get("first")
		assert.NoError(t, err)
		assert.Equal(t, first, got)
		assert.Equal(t, []Adapter{second, first}, reg.Adapters())
	})

	t.Run("Duplicate slug", func(t *testing.T) {
		a := new(MockAdapter)
		a.On("Meta").Return(Meta{Slug: "foisa"})
		b := new(MockAdapter)
		b.On("Meta").Return(Meta{Slug: "foisa"})

		reg := NewRegistry()
		require.NoError(t, reg.Register(a))
		err := reg.Register(b)
		assert.ErrorIs(t, err, ErrDuplicateAdapter)

		got, _ := reg.Get("foisa")
		assert.Equal(t, a, got)
	})

	t.Run("Empty slug and nil adapter", func(t *testing.T) {
		a := new(MockAdapter)
		a.On("Meta").Return(Meta{})

		reg := NewRegistry()
		assert.Error(t, reg.Register(a))
		assert.Error(t, reg.Register(nil))
		assert.Empty(t, reg.Adapters())
	})

	t.Run("Unknown slug", func(t *testing.T) {
		_, err := NewRegistry().Get("nowhere")
		assert.ErrorIs(t, err, ErrUnknownAdapter)
	})
}

func TestNewDefaultRegistry(t *testing.T) {
	root := t.TempDir()

	reg, err := NewDefaultRegistry(dirLocator(root), []string{FoisaSlug, CabinetSlug})
	require.NoError(t, err)
	require.Len(t, reg.Adapters(), 2)

	foisa, err := reg.Get(FoisaSlug)
	require.NoError(t, err)
	assert.IsType(t, &FoisaAdapter{}, foisa)
	assert.Equal(t, filepath.Join(root, FoisaSlug), foisa.(*FoisaAdapter).Dir)
	assert.Equal(t, DefaultOverallTotalColumn, foisa.Meta().OverallTotalColumn)

	_, err = NewDefaultRegistry(dirLocator(root), []string{"atlantis"})
	assert.ErrorIs(t, err, ErrUnknownAdapter)

	_, err = NewDefaultRegistry(dirLocator(root), []string{FoisaSlug, FoisaSlug})
	assert.ErrorIs(t, err, ErrDuplicateAdapter)
}

func TestMetaYears(t *testing.T) {
	m := NewFoisaAdapter("").Meta()
	assert.Equal(t, []int{2013, 2014, 2015, 2016, 2017, 2018, 2019}, m.Years())
	assert.Len(t, NewCabinetAdapter("").Meta().Years(), 10)
}

func TestZeroIfNone(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  int64
	}{
		{name: "Nil", input: nil, want: 0},
		{name: "Dash", input: "-", want: 0},
		{name: "Double dash", input: "--", want: 0},
		{name: "Blank", input: "   ", want: 0},
		{name: "Non-numeric text", input: "n/a", want: 0},
		{name: "Numeric text", input: " 42 ", want: 42},
		{name: "Float truncates", input: 12.9, want: 12},
		{name: "Int", input: 7, want: 7},
		{name: "Zero float", input: 0.0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ZeroIfNone(tt.input))
		})
	}
}

func TestAliases(t *testing.T) {
	aliases := NewAliases([]AuthorityRow{
		{Name: "Home Office", AltNames: []string{"HO", "Home Office (HO)"}},
		{Name: "Cabinet Office"},
	})

	assert.Equal(t, "Home Office", aliases.Resolve("HO"))
	assert.Equal(t, "Home Office", aliases.Resolve("Home Office (HO)"))
	assert.Equal(t, "Home Office", aliases.Resolve("Home Office"))
	assert.Equal(t, "Somewhere Else", aliases.Resolve("Somewhere Else"))
}

func TestAliasResolutionIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("resolving a resolved name changes nothing", prop.ForAll(
		func(names []string, alts []string, probe string) bool {
			var rows []AuthorityRow
			for i, n := range names {
				row := AuthorityRow{Name: "canonical " + n}
				if i < len(alts) {
					row.AltNames = []string{"alt " + alts[i]}
				}
				rows = append(rows, row)
			}
			aliases := NewAliases(rows)
			once := aliases.Resolve(probe)
			return aliases.Resolve(once) == once
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
		gen.OneGenOf(gen.AlphaString(), gen.Const("alt a"), gen.Const("canonical a")),
	))

	properties.TestingRun(t)
}

func TestBaseFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		PropertyFile: "id,value,description,combo_of,special,child_of\n" +
			"1,Public Information Requests,All requests,*children*,PI_ALL,\n" +
			"2, FOISA requests ,,,,Public Information Requests\n" +
			",,,,,\n",
		AuthorityFile: "AuthorityName,sector,alt_name,authority_id,render_full,wdtk_id_2,wdtk_id_1\n" +
			"Councils,,,100,0,,\n" +
			"Aberdeen City Council,Councils,Aberdeen Council | Aberdeen CC,1,1,b,a\n",
		DescriptionFile: "# Scotland\n\nFigures <script>alert(1)</script> from OSIC\n",
	})

	a := NewFoisaAdapter(dir)

	props, err := a.Properties()
	require.NoError(t, err)
	assert.Equal(t, []PropertyRow{
		{ID: "1", Name: "Public Information Requests", Description: "All requests", ComboOf: "*children*", Special: "PI_ALL"},
		{ID: "2", Name: "FOISA requests", ChildOf: "Public Information Requests"},
	}, props)

	auths, err := a.Authorities()
	require.NoError(t, err)
	require.Len(t, auths, 2)
	assert.True(t, auths[0].IsSector())
	assert.False(t, auths[0].RenderFull)
	assert.Equal(t, AuthorityRow{
		Name:        "Aberdeen City Council",
		Sector:      "Councils",
		AltNames:    []string{"Aberdeen Council", "Aberdeen CC"},
		AuthorityID: "1",
		RenderFull:  true,
		ExternalIDs: []string{"a", "b"},
	}, auths[1])

	desc, err := a.Description()
	require.NoError(t, err)
	assert.Contains(t, desc, "<h1>Scotland</h1>")
	assert.NotContains(t, desc, "<script>")

	empty, err := NewFoisaAdapter(t.TempDir()).Description()
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestBaseMissingColumns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		PropertyFile:  "id,name\n1,A\n",
		AuthorityFile: "Name,sector\nA,\n",
	})
	a := NewFoisaAdapter(dir)

	_, err := a.Properties()
	assert.ErrorIs(t, err, frame.ErrMissingColumn)

	_, err = a.Authorities()
	assert.ErrorIs(t, err, frame.ErrMissingColumn)
}
