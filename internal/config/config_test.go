package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nativeload.yaml")
	content := `
resources: /opt/bundle
loader:
  libs: [xgboost4j, dmlc]
  native_dir: /opt/native
  resource_root: /native
logger:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"xgboost4j", "dmlc"}, cfg.Loader.LibNames)
	require.Equal(t, "/opt/native", cfg.Loader.NativeDir)
	require.Equal(t, "/native", cfg.Loader.ResourceRoot)
	require.Equal(t, "/opt/bundle", cfg.Resources)
	require.Equal(t, "debug", cfg.Logger.Level)
	require.Equal(t, "json", cfg.Logger.Format)
	require.Equal(t, "stderr", cfg.Logger.Output)
}

func TestLoadDefaults(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	require.Equal(t, []string{"xgboost4j"}, cfg.Loader.LibNames)
	require.Equal(t, "../../lib/", cfg.Loader.NativeDir)
	require.Equal(t, "/lib", cfg.Loader.ResourceRoot)
	require.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NATIVELOAD_LOADER_TEMP_DIR", "/var/tmp/nativeload")
	t.Setenv("NATIVELOAD_LOGGER_LEVEL", "warn")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	require.Equal(t, "/var/tmp/nativeload", cfg.Loader.TempDir)
	require.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestLoadEnvLibsCommaSeparated(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NATIVELOAD_LOADER_LIBS", "xgboost4j, dmlc,,gomp")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	require.Equal(t, []string{"xgboost4j", "dmlc", "gomp"}, cfg.Loader.LibNames)
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("nativeload", pflag.ContinueOnError)
	flags.String("resources", "", "")
	flags.StringSlice("lib", nil, "")
	flags.String("native-dir", "", "")
	flags.String("temp-dir", "", "")
	flags.String("log-level", "", "")
	return flags
}

func TestLoadFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nativeload.yaml")
	content := `
resources: /opt/bundle
loader:
  libs: [xgboost4j]
  native_dir: /opt/native
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("NATIVELOAD_LOADER_TEMP_DIR", "/var/tmp/from-env")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--lib", "first,second", "--temp-dir", "/var/tmp/from-flag"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	require.Equal(t, []string{"first", "second"}, cfg.Loader.LibNames)
	require.Equal(t, "/var/tmp/from-flag", cfg.Loader.TempDir)
	// unset flags leave the file values alone
	require.Equal(t, "/opt/native", cfg.Loader.NativeDir)
	require.Equal(t, "/opt/bundle", cfg.Resources)
	require.Equal(t, "debug", cfg.Logger.Level)
}

// chdirForTest changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
