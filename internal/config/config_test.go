package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/sigscan/internal/constants"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, constants.DefaultDir, constants.ConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, constants.DefaultMaxPatternLength, cfg.Signatures.MaxPatternLength)
	assert.Equal(t, constants.DefaultSignaturesFile, cfg.Signatures.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestNewLoader_ConfigEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(constants.ConfigDirEnv, dir)

	loader := NewLoader()
	assert.Equal(t, filepath.Join(dir, constants.DefaultDir, constants.ConfigFile), loader.ConfigPath())
}

func TestLoader_LoadMissingFileReturnsDefaults(t *testing.T) {
	loader := &Loader{baseDir: t.TempDir()}

	layered, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), layered.Config)
	assert.Empty(t, layered.Path)
}

func TestLoader_SaveAndLoad(t *testing.T) {
	loader := &Loader{baseDir: t.TempDir()}

	cfg := Default()
	cfg.Signatures.Path = "/var/lib/sigscan/db.yaml"
	cfg.Signatures.MaxSignatures = 500
	cfg.Signatures.Filter = `length >= 4`
	cfg.Device.Multiprocessors = 6
	cfg.Logging.Level = "debug"
	cfg.Logging.Pretty = false

	require.NoError(t, loader.Save(cfg))
	assert.FileExists(t, loader.ConfigPath())

	layered, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, layered.Config)
	assert.Equal(t, loader.ConfigPath(), layered.Path)
}

func TestLoader_SaveRejectsInvalid(t *testing.T) {
	loader := &Loader{baseDir: t.TempDir()}
	cfg := Default()
	cfg.Signatures.MaxPatternLength = 0

	require.Error(t, loader.Save(cfg))
	assert.NoFileExists(t, loader.ConfigPath())
}

func TestLoader_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "device:\n  multiprocessors: 3\n")

	layered, err := (&Loader{baseDir: dir}).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, layered.Config.Device.Multiprocessors)
	assert.Equal(t, constants.DefaultMaxPatternLength, layered.Config.Signatures.MaxPatternLength)
	assert.Equal(t, "info", layered.Config.Logging.Level)
}

func TestLoader_InvalidFile(t *testing.T) {
	tests := map[string]string{
		"bad yaml":          "signatures: [\n",
		"negative count":    "signatures:\n  max_signatures: -1\n",
		"pattern too long":  "signatures:\n  max_pattern_length: 10000001\n",
		"unknown log level": "logging:\n  level: loud\n",
		"bad filter":        "signatures:\n  filter: \"name +\"\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, content)
			_, err := (&Loader{baseDir: dir}).Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SIGSCAN_SIGNATURES", "/tmp/sigs.json")
	t.Setenv("SIGSCAN_MAX_SIGNATURES", "42")
	t.Setenv("SIGSCAN_MAX_PATTERN_LENGTH", "64")
	t.Setenv("SIGSCAN_SIGNATURE_FILTER", `name.startsWith("EICAR")`)
	t.Setenv("SIGSCAN_DEVICE_MULTIPROCESSORS", "8")
	t.Setenv("SIGSCAN_DEVICE_MEMORY_LIMIT", "1048576")
	t.Setenv("SIGSCAN_LOG_LEVEL", "warn")
	t.Setenv("SIGSCAN_LOG_PRETTY", "false")

	cfg := Default()
	applied, err := LoadFromEnv(cfg)
	require.NoError(t, err)

	assert.Len(t, applied, 8)
	assert.Equal(t, "/tmp/sigs.json", cfg.Signatures.Path)
	assert.Equal(t, 42, cfg.Signatures.MaxSignatures)
	assert.Equal(t, 64, cfg.Signatures.MaxPatternLength)
	assert.Equal(t, `name.startsWith("EICAR")`, cfg.Signatures.Filter)
	assert.Equal(t, 8, cfg.Device.Multiprocessors)
	assert.Equal(t, int64(1048576), cfg.Device.MemoryLimit)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Pretty)
}

func TestLoadFromEnv_Errors(t *testing.T) {
	tests := map[string]string{
		"SIGSCAN_MAX_SIGNATURES": "many",
		"SIGSCAN_LOG_PRETTY":     "sometimes",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadFromEnv(Default())
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadFromEnv_EmptyIgnored(t *testing.T) {
	t.Setenv("SIGSCAN_LOG_LEVEL", "  ")

	cfg := Default()
	applied, err := LoadFromEnv(cfg)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadLayered_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "logging:\n  level: debug\ndevice:\n  multiprocessors: 2\n")
	t.Setenv("SIGSCAN_LOG_LEVEL", "error")

	layered, err := LoadLayered(path)
	require.NoError(t, err)
	assert.Equal(t, "error", layered.Config.Logging.Level)
	assert.Equal(t, 2, layered.Config.Device.Multiprocessors)
	assert.Equal(t, []string{"SIGSCAN_LOG_LEVEL"}, layered.Env)
}

func TestLoadLayered_SignaturesPathRelativeToFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    func(cfgDir string) string
	}{
		{
			name:    "relative path joins config dir",
			content: "signatures:\n  path: db/sigs.yaml\n",
			want:    func(cfgDir string) string { return filepath.Join(cfgDir, "db", "sigs.yaml") },
		},
		{
			name:    "absolute path kept",
			content: "signatures:\n  path: /srv/sigs.json\n",
			want:    func(string) string { return "/srv/sigs.json" },
		},
		{
			name:    "unset path keeps default",
			content: "device:\n  multiprocessors: 2\n",
			want:    func(string) string { return constants.DefaultSignaturesFile },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.content)

			layered, err := LoadLayered(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want(filepath.Dir(path)), layered.Config.Signatures.Path)
		})
	}
}

func TestLoadLayered_EnvSignaturesPathNotRebased(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "signatures:\n  path: from-file.json\n")
	t.Setenv("SIGSCAN_SIGNATURES", "from-env.json")

	layered, err := LoadLayered(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.json", layered.Config.Signatures.Path)
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(FlagSignatures, "", "")
	fs.Int(FlagMaxSignatures, 0, "")
	fs.Int(FlagMaxPatternLength, 0, "")
	fs.String(FlagFilter, "", "")
	fs.Int64(FlagMemoryLimit, 0, "")
	fs.String(FlagLogLevel, "", "")
	require.NoError(t, fs.Parse([]string{"--signatures", "db.yaml", "--max-pattern-length", "32", "--memory-limit", "4096"}))

	cfg := Default()
	cfg.Logging.Level = "warn"
	require.NoError(t, ApplyFlags(cfg, fs))

	assert.Equal(t, "db.yaml", cfg.Signatures.Path)
	assert.Equal(t, 32, cfg.Signatures.MaxPatternLength)
	assert.Equal(t, int64(4096), cfg.Device.MemoryLimit)
	assert.Equal(t, "warn", cfg.Logging.Level, "unset flags keep lower layers")
	assert.Equal(t, 0, cfg.Signatures.MaxSignatures)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Version = "9"
	cfg.Signatures.MaxSignatures = -1
	cfg.Device.Multiprocessors = -2
	cfg.Device.MemoryLimit = -3
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	var multi *MultiValidationError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 5)
	assert.Contains(t, err.Error(), "validation failed with 5 errors")
}

func TestValidate_SingleError(t *testing.T) {
	cfg := Default()
	cfg.Device.Multiprocessors = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, "device.multiprocessors: must not be negative, got -1", err.Error())
}
