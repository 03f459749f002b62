package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/moosedocs/pkg/syntax/syntaxtest"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "moosedocs.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			assert.Equal(t, tt.want, getEnv(tt.key, tt.defaultValue))
		})
	}
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("TEST_BOOL_TRUE", "TRUE")
	t.Setenv("TEST_BOOL_ONE", "1")
	t.Setenv("TEST_BOOL_NO", "no")
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_INT_BAD", "twelve")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_DURATION_BAD", "soon")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_FLOAT_BAD", "quarter")

	assert.True(t, getEnvBool("TEST_BOOL_TRUE", false))
	assert.True(t, getEnvBool("TEST_BOOL_ONE", false))
	assert.False(t, getEnvBool("TEST_BOOL_NO", true))
	assert.True(t, getEnvBool("TEST_BOOL_UNSET", true))

	assert.Equal(t, 12, getEnvInt("TEST_INT", 3))
	assert.Equal(t, 3, getEnvInt("TEST_INT_BAD", 3))

	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION_BAD", time.Second))

	assert.Equal(t, 0.25, getEnvFloat("TEST_FLOAT", 1))
	assert.Equal(t, 1.0, getEnvFloat("TEST_FLOAT_BAD", 1))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"framework"}, cfg.LocationNames())
	assert.Equal(t, []string{"css", "js", "media"}, cfg.Assets)
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
site_dir: build/site
content_dir: docs
template: templates/website.html
template_args:
  title: MOOSE
executable: bin/app-opt
executable_timeout: 30s
hide:
  - /Mesh
locations:
  - framework:
      paths: [/]
      hide: [/Outputs]
  - name: phase_field
    paths: [/Adaptivity/Markers]
threads: 4
cache:
  fragment_size: 50
  fragment_ttl: 10m
s3:
  bucket: docs
server:
  port: "9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "build/site"), cfg.SiteDir)
	assert.Equal(t, filepath.Join(dir, "docs"), cfg.ContentDir)
	assert.Equal(t, filepath.Join(dir, "templates/website.html"), cfg.Template)
	assert.Equal(t, filepath.Join(dir, "bin/app-opt"), cfg.Executable)
	assert.Equal(t, filepath.Join(dir, "navigation.yml"), cfg.Navigation, "default kept")
	assert.Equal(t, map[string]string{"title": "MOOSE"}, cfg.TemplateArgs)
	assert.Equal(t, 30*time.Second, cfg.ExecutableTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Cache.FragmentTTL)
	assert.Equal(t, 50, cfg.Cache.FragmentSize)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, "docs", cfg.S3.Bucket)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "default kept")

	require.Len(t, cfg.Locations, 2)
	assert.Equal(t, LocationConfig{Name: "framework", Paths: []string{"/"}, Hide: []string{"/Outputs"}}, cfg.Locations[0])
	assert.Equal(t, "phase_field", cfg.Locations[1].Name)
	assert.Equal(t, []string{"/Outputs", "/Mesh"}, cfg.Locations[0].Location(cfg.Hide).Hide)
	assert.Equal(t, []string{"/Mesh"}, cfg.Locations[1].Location(cfg.Hide).Hide)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "executable: app-opt\nthreads: 2\n")

	t.Setenv("MOOSEDOCS_THREADS", "8")
	t.Setenv("MOOSEDOCS_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("MOOSEDOCS_LOG_LEVEL", "debug")
	t.Setenv("MOOSEDOCS_OTEL_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "app-opt", cfg.Executable, "bare names are looked up on PATH")
	assert.Equal(t, 8, cfg.Threads)
	assert.Equal(t, "redis://cache:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Observability.OTel().Enabled)
	assert.Equal(t, "moosedocs", cfg.Observability.OTel().ServiceName)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed", body: "site_dir: [", want: "parse"},
		{name: "same dirs", body: "site_dir: out\ncontent_dir: out\n", want: "must be different"},
		{name: "no locations", body: "locations: []\n", want: "at least one location"},
		{name: "unnamed location", body: "locations:\n  - paths: [/]\n", want: "has no name"},
		{name: "duplicate location", body: "locations:\n  - name: a\n    paths: [/]\n  - name: a\n    paths: [/Mesh]\n", want: "duplicate location"},
		{name: "no paths", body: "locations:\n  - framework:\n      hide: [/Mesh]\n", want: "has no paths"},
		{name: "negative threads", body: "threads: -1\n", want: "threads must not be negative"},
		{name: "sample ratio above one", body: "observability:\n  otel_sample_ratio: 1.5\n", want: "otel_sample_ratio must be between 0 and 1"},
		{name: "otel without endpoint", body: "observability:\n  otel_enabled: true\n  otel_endpoint: \"\"\n", want: "endpoint is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "site"), cfg.SiteDir, "defaults rooted at dir")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".moosedocs.yaml"), []byte("site_dir: public\n"), 0o644))
	cfg, err = LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "public"), cfg.SiteDir)
}

func TestConfig_Registries(t *testing.T) {
	tree := syntaxtest.Tree(t)

	cfg := DefaultConfig()
	cfg.Hide = []string{"/Adaptivity/Markers/BoxMarker"}
	cfg.Locations = append(cfg.Locations, LocationConfig{Name: "phase_field", Paths: []string{"/Adaptivity/Markers"}})

	regs, err := cfg.Registries(tree)
	require.NoError(t, err)
	assert.Equal(t, []string{"framework", "phase_field"}, regs.Names())

	for _, name := range regs.Names() {
		reg, ok := regs.Get(name)
		require.True(t, ok)
		assert.False(t, reg.HasObject("BoxMarker"), "%s hides globally hidden paths", name)
		assert.True(t, reg.HasObject("ErrorFractionMarker"), name)
	}
}
