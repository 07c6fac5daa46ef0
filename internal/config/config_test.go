package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("FILE_PRICE", "")
	t.Setenv("BATCH_DEBOUNCE", "")

	cfg := Load()

	assert.Equal(t, "token", cfg.Bot.Token)
	assert.Equal(t, int64(5000), cfg.Billing.FilePrice)
	assert.Equal(t, int64(1000), cfg.Billing.MinExternalCharge)
	assert.Equal(t, 3*time.Second, cfg.Batch.Debounce)
	assert.Equal(t, 30*time.Minute, cfg.Batch.AbandonAfter)
	assert.Equal(t, "UZS", cfg.Bot.Currency)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("ADMIN_ID", "77")
	t.Setenv("FILE_PRICE", "7000")
	t.Setenv("BATCH_DEBOUNCE", "5s")
	t.Setenv("BATCH_ABANDON_AFTER", "bogus")
	t.Setenv("OFFER_URL_RU", " https://example.org/ru ")

	cfg := Load()

	assert.Equal(t, int64(77), cfg.Bot.AdminID)
	assert.Equal(t, int64(7000), cfg.Billing.FilePrice)
	assert.Equal(t, 5*time.Second, cfg.Batch.Debounce)
	assert.Equal(t, 30*time.Minute, cfg.Batch.AbandonAfter)
	assert.Equal(t, "https://example.org/ru", cfg.Offer.RU)
	assert.Empty(t, cfg.Offer.UZ)
}

func TestConfig_Validate_MissingToken(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOT_TOKEN", "")

	cfg := Load()

	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)
}

func TestLoadEnvFile_PrefersFirstExisting(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, ".env.development")
	prod := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dev, []byte("DOCX_BOT_TEST_VALUE=dev\n"), 0o600))
	require.NoError(t, os.WriteFile(prod, []byte("DOCX_BOT_TEST_VALUE=prod\n"), 0o600))
	t.Setenv("DOCX_BOT_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("DOCX_BOT_TEST_VALUE"))

	path, err := LoadEnvFile(dev, prod)

	require.NoError(t, err)
	assert.Equal(t, dev, path)
	assert.Equal(t, "dev", os.Getenv("DOCX_BOT_TEST_VALUE"))
}

func TestLoadEnvFile_MissingIsNotError(t *testing.T) {
	path, err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env"))

	require.NoError(t, err)
	assert.Empty(t, path)
}

// chdir is a stand-in for testing.T.Chdir (Go 1.24+): it switches the working
// directory for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
