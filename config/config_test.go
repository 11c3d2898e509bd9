package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))

	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "http://localhost:8000", cfg.Calc.ServiceURL)
	assert.Equal(t, 30*time.Second, cfg.Calc.Timeout)
	assert.Equal(t, 8000, cfg.Calc.Port)
	assert.Equal(t, ruleset.Default, cfg.Ruleset.Name)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "tax-advisor", cfg.Auth.JWTIssuer)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=9090\nRULESET=legacy\nCALC_TIMEOUT=2s\n"), 0o600))

	t.Setenv("ENV_FILE", envFile)
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("RULESET")
		os.Unsetenv("CALC_TIMEOUT")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "legacy", cfg.Ruleset.Name)
	assert.Equal(t, 2*time.Second, cfg.Calc.Timeout)
}

func TestLoadInvalid(t *testing.T) {
	type TC struct {
		key   string
		value string
	}

	tcs := []TC{
		{key: "SERVER_PORT", value: "abc"},
		{key: "SERVER_PORT", value: "-1"},
		{key: "CALC_TIMEOUT", value: "soon"},
		{key: "CALC_SERVICE_URL", value: "localhost"},
		{key: "CAP_POLICY", value: "ignore"},
		{key: "LOG_FORMAT", value: "xml"},
	}

	for _, tc := range tcs {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRulesetConfigLoad(t *testing.T) {
	rules, err := RulesetConfig{Name: "2567", CapPolicy: "reject"}.Load()
	require.NoError(t, err)
	assert.Equal(t, "2567", rules.Name)
	assert.Equal(t, ruleset.PolicyReject, rules.Policy)

	rules, err = RulesetConfig{Name: "legacy"}.Load()
	require.NoError(t, err)
	assert.Equal(t, ruleset.PolicyClamp, rules.Policy)

	_, err = RulesetConfig{Name: "1999"}.Load()
	assert.ErrorIs(t, err, ruleset.ErrUnknownRuleset)

	_, err = RulesetConfig{File: filepath.Join(t.TempDir(), "missing.yaml")}.Load()
	assert.Error(t, err)
}
