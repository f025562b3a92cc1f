package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REPSPARK_EMAIL", "user@example.com")
	t.Setenv("REPSPARK_PASSWORD", "secret")
	t.Setenv("GSHEET_ID", "sheet-id")
	t.Setenv("GCP_SA_JSON", `{"type":"service_account"}`)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPortalURL, cfg.Portal.URL)
	assert.Equal(t, DefaultProductsXPath, cfg.Portal.ProductsXPath)
	assert.Equal(t, DefaultExportIDXPath, cfg.Portal.ExportIDXPath)
	assert.Equal(t, DefaultExportFBXPath, cfg.Portal.ExportFBXPath)
	assert.Equal(t, "downloads", cfg.Portal.DownloadDir)
	assert.Equal(t, 3, cfg.Portal.ExportRetries)
	assert.Equal(t, 1500*time.Millisecond, cfg.Portal.ExportRetryPause)
	assert.Equal(t, "BASE", cfg.Sheets.Tab)
	assert.Equal(t, "sa.json", cfg.Sheets.ServiceAccountFile)
	assert.True(t, cfg.Browser.Headless)
	assert.False(t, cfg.HistoryEnabled())
	assert.False(t, cfg.EventsEnabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REPSPARK_URL", "https://app.repspark.com/_999")
	t.Setenv("GSHEET_TAB", "AVAILABILITY")
	t.Setenv("EXPORT_RETRIES", "5")
	t.Setenv("EXPORT_RETRY_PAUSE", "2s")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("DATABASE_URL", "postgres://localhost/repspark")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://app.repspark.com/_999", cfg.Portal.URL)
	assert.Equal(t, "AVAILABILITY", cfg.Sheets.Tab)
	assert.Equal(t, 5, cfg.Portal.ExportRetries)
	assert.Equal(t, 2*time.Second, cfg.Portal.ExportRetryPause)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.HistoryEnabled())
	assert.True(t, cfg.EventsEnabled())
}

func TestLoadMissingRequired(t *testing.T) {
	required := []string{"REPSPARK_EMAIL", "REPSPARK_PASSWORD", "GSHEET_ID", "GCP_SA_JSON"}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestValidateRejectsZeroRetries(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXPORT_RETRIES", "0")

	_, err := Load()

	assert.ErrorContains(t, err, "EXPORT_RETRIES")
}
