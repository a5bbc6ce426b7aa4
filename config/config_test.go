package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PI_ADAPTERS", "")
	t.Setenv("BATCH_SIZE", "")
	t.Setenv("VALUE_BATCH_SIZE", "")
	t.Setenv("REFRESH_CRON", "")

	cfg := Load()
	assert.Equal(t, []string{"foisa", "cabinetfoi"}, cfg.Adapters)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultValueBatchSize, cfg.ValueBatchSize)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.RemoteResourcesConfigured())
	assert.Equal(t, "0 3 * * *", cfg.RefreshCron)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PI_ADAPTERS", " cabinetfoi , ,foisa")
	t.Setenv("BATCH_SIZE", "50")
	t.Setenv("VALUE_BATCH_SIZE", "not-a-number")
	t.Setenv("LOG_JSON", "yes")

	cfg := Load()
	assert.Equal(t, []string{"cabinetfoi", "foisa"}, cfg.Adapters)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, DefaultValueBatchSize, cfg.ValueBatchSize)
	assert.True(t, cfg.LogJSON)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "Zero batch size",
			cfg:     Config{BatchSize: 0, ValueBatchSize: 10, Adapters: []string{"foisa"}},
			wantErr: "BATCH_SIZE",
		},
		{
			name:    "Negative value batch size",
			cfg:     Config{BatchSize: 10, ValueBatchSize: -1, Adapters: []string{"foisa"}},
			wantErr: "VALUE_BATCH_SIZE",
		},
		{
			name:    "No adapters",
			cfg:     Config{BatchSize: 10, ValueBatchSize: 10},
			wantErr: "PI_ADAPTERS",
		},
		{
			name: "Valid",
			cfg:  Config{BatchSize: 10, ValueBatchSize: 10, Adapters: []string{"foisa"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRemoteResourcesConfigured(t *testing.T) {
	cfg := Config{R2AccountID: "acc", R2AccessKeyID: "key", R2SecretAccessKey: "secret"}
	assert.False(t, cfg.RemoteResourcesConfigured())

	cfg.R2BucketName = "pi-resources"
	assert.True(t, cfg.RemoteResourcesConfigured())
}
