package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sequent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "")
	dir := filepath.Dir(path)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, DefaultProofsDir), cfg.ProofsDir)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Zero(t, cfg.Parallelism)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.NoState)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "proofs_dir: theory\nlog_format: json\nparallelism: 4\n")
	dir := filepath.Dir(path)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "theory"), cfg.ProofsDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Parallelism)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "log_format: json\n")
	t.Setenv("SEQUENT_LOG_FORMAT", "text")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "log_format: json\n")
	t.Setenv("SEQUENT_LOG_FORMAT", "json")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-format", "text", "")
	fs.String("state", "", "")
	require.NoError(t, fs.Set("log-format", "text"))
	require.NoError(t, fs.Set("state", "custom.db"))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)

	// Flag paths resolve against the invocation directory, not the
	// project root.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "custom.db"), cfg.StatePath)
}

func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "log_format: json\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-format", "text", "")

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat, "default flag values must not override the file")
}

func TestLoadConfig_InvalidLogFormat(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "log_format: xml\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestLoadConfig_AbsolutePathsKept(t *testing.T) {
	t.Cleanup(ResetConfig)
	abs := filepath.Join(t.TempDir(), "elsewhere")
	path := writeConfig(t, "proofs_dir: "+abs+"\n")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.ProofsDir)
}
