package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaider-dev/spaider/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 15, cfg.Weights.Structural)
	assert.Equal(t, 90, cfg.Threshold)
	assert.Equal(t, 0.5, cfg.WarningFactor)
	assert.Contains(t, cfg.Blocking, models.RuleMissingRequiredBlock)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
  "threshold": 70,
  "weights": {"structural": 25},
  "blocking": ["UNRESOLVED_REFERENCE"]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Threshold)
	assert.Equal(t, 25, cfg.Weights.Structural)
	assert.Equal(t, 10, cfg.Weights.IDFormat, "untouched keys keep their defaults")
	assert.Equal(t, []string{models.RuleUnresolvedReference}, cfg.Blocking)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPAIDER_THRESHOLD", "50")
	t.Setenv("SPAIDER_WEIGHTS__STRUCTURAL", "30")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Threshold)
	assert.Equal(t, 30, cfg.Weights.Structural)
}

func TestLoadRejectsMalformedEnvValue(t *testing.T) {
	t.Setenv("SPAIDER_THRESHOLD", "not-a-number")

	_, err := Load("")
	require.Error(t, err)
	var cfgErr *models.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadRejectsUnknownBlockingRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"blocking": ["NO_SUCH_RULE"]}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_SUCH_RULE")
}

func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"threshold": 250}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *models.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCompiledPlaceholders(t *testing.T) {
	patterns, err := Defaults().CompiledPlaceholders()
	require.NoError(t, err)
	require.Len(t, patterns, 4)
	assert.True(t, patterns[0].MatchString("still TODO here"))

	bad := Scoring{Placeholders: []string{`[unclosed`}}
	_, err = bad.CompiledPlaceholders()
	assert.Error(t, err)
}
