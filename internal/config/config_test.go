package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account","project_id":"test_project"}`)
	t.Setenv("BLOB_CONNECTION_STRING", "test_connection_string")
	t.Setenv("BLOB_CONTAINER_NAME", "test_container")
	t.Setenv("GA4_PROPERTY_ID", "test_property_id")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.ServiceEnvironment)
	assert.Equal(t, "test_property_id", cfg.PropertyID)
	assert.Equal(t, "2024-01-01", cfg.StartDate)
	assert.Equal(t, "azure", cfg.SinkProvider)
	assert.Equal(t, "test_connection_string", cfg.ConnectionString)
	assert.Equal(t, "test_container", cfg.ContainerName)
	assert.True(t, cfg.RunOnStartup)
	assert.Equal(t, "8080", cfg.HandlerPort)
	assert.False(t, cfg.NeedsAWS())
}

func TestLoad_MissingRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GA4_PROPERTY_ID", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_APPLICATION_CREDENTIALS_JSON")
}

func TestLoad_CredentialsFromSSM(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_CREDENTIALS_SSM_PARAMETER", "/ga4export/service-account")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.NeedsAWS())
}

func TestLoad_AzureNeedsConnectionString(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BLOB_CONNECTION_STRING", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BLOB_CONNECTION_STRING")
}

func TestLoad_S3(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BLOB_CONNECTION_STRING", "")
	t.Setenv("SINK_PROVIDER", " S3 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.SinkProvider)
	assert.True(t, cfg.NeedsAWS())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"provider", "SINK_PROVIDER", "gcs"},
		{"start date", "GA4_START_DATE", "01/01/2024"},
		{"run on startup", "RUN_ON_STARTUP", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_Archive(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ARCHIVE_BUCKET", "analytics")
	t.Setenv("ATHENA_DATABASE", "marketing")
	t.Setenv("ATHENA_TABLE", "ga4_snapshots")
	t.Setenv("ATHENA_OUTPUT", "s3://athena-results/ga4/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ga4_snapshots/", cfg.ArchivePrefix)
	assert.Equal(t, "primary", cfg.AthenaWorkgroup)
	assert.True(t, cfg.CatalogEnabled())
	assert.True(t, cfg.NeedsAWS())
}

func TestLoad_CatalogNeedsArchiveAndOutput(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{"bucket", "ARCHIVE_BUCKET", "ARCHIVE_BUCKET"},
		{"database", "ATHENA_DATABASE", "ATHENA_DATABASE"},
		{"output", "ATHENA_OUTPUT", "ATHENA_OUTPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("ARCHIVE_BUCKET", "analytics")
			t.Setenv("ATHENA_DATABASE", "marketing")
			t.Setenv("ATHENA_TABLE", "ga4_snapshots")
			t.Setenv("ATHENA_OUTPUT", "s3://athena-results/ga4/")
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
