package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

func TestRenderDefaultConfig_ParsesBack(t *testing.T) {
	data, err := renderDefaultConfig()
	require.NoError(t, err)

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	require.Equal(t, model.DefaultConfig(), cfg)
}

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]any{
		"llm":    map[string]any{"provider": "openai", "max_output_tokens": 4096},
		"output": map[string]any{"verbose": false},
	})
	require.Equal(t, map[string]any{
		"llm.provider":          "openai",
		"llm.max_output_tokens": 4096,
		"output.verbose":        false,
	}, got)
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDotenv_KeepsExistingUnlessOverload(t *testing.T) {
	path := writeEnvFile(t, "SG_TEST_NEW=from-file\nSG_TEST_KEEP=from-file\n")
	t.Setenv("ENV_FILE", path)
	t.Setenv("NO_DOTENV", "")
	t.Setenv("DOTENV_OVERLOAD", "")
	t.Setenv("SG_TEST_KEEP", "from-env")
	t.Setenv("SG_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("SG_TEST_NEW"))

	loadDotenv()
	require.Equal(t, "from-file", os.Getenv("SG_TEST_NEW"))
	require.Equal(t, "from-env", os.Getenv("SG_TEST_KEEP"))

	t.Setenv("DOTENV_OVERLOAD", "1")
	loadDotenv()
	require.Equal(t, "from-file", os.Getenv("SG_TEST_KEEP"))
}

func TestLoadDotenv_Disabled(t *testing.T) {
	path := writeEnvFile(t, "SG_TEST_DISABLED=from-file\n")
	t.Setenv("ENV_FILE", path)
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("SG_TEST_DISABLED", "")
	require.NoError(t, os.Unsetenv("SG_TEST_DISABLED"))

	loadDotenv()
	_, ok := os.LookupEnv("SG_TEST_DISABLED")
	require.False(t, ok)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_DOTENV", "1")
	t.Setenv("OPENAI_API_KEY", "sk-test-123456")
	t.Setenv("MEDIA_SHEET_URL", "https://docs.google.com/spreadsheets/d/abc/edit")
	t.Setenv("SPONSORGRADER_RESEARCH_TIMEOUT", "90s")
	t.Setenv("SPONSORGRADER_LLM_PROVIDER", "gemini")

	initConfig()
	cfg, err := loadConfig()
	require.NoError(t, err)

	require.Equal(t, "sk-test-123456", cfg.LLM.OpenAIAPIKey)
	require.Equal(t, "https://docs.google.com/spreadsheets/d/abc/edit", cfg.Sheets.MediaURL)
	require.Equal(t, 90*time.Second, cfg.Research.Timeout)
	require.Equal(t, "gemini", cfg.LLM.Provider)
	require.Equal(t, "Token Metrics", cfg.Research.Organization)
	require.Equal(t, filepath.Join(home, ".sponsorgrader", "grades.db"), cfg.Ledger.Path)
	require.Equal(t, filepath.Join(home, ".sponsorgrader", "cache"), cfg.Cache.Dir)
}

func TestLoadConfig_ConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("NO_DOTENV", "1")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("research:\n  organization: Acme Media\n  max_retries: 2\nwebsite:\n  enabled: false\n"), 0o600))

	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })

	initConfig()
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "Acme Media", cfg.Research.Organization)
	require.Equal(t, 2, cfg.Research.MaxRetries)
	require.False(t, cfg.Website.Enabled)
	require.Equal(t, 5*time.Minute, cfg.Research.Timeout)
}
