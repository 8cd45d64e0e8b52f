// Package config loads the nativeload command configuration from a file,
// NATIVELOAD_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	nativeload "github.com/slava-go-dev/go-nativeload-pure"
)

// Logger logger config struct
type Logger struct {
	Level  string
	Format string
	Output string
}

type Config struct {
	Loader    nativeload.Config
	Resources string
	Logger    *Logger
}

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"resources":  "resources",
	"lib":        "loader.libs",
	"native-dir": "loader.native_dir",
	"temp-dir":   "loader.temp_dir",
	"log-level":  "logger.level",
}

func setDefaults(v *viper.Viper) {
	def := nativeload.DefaultConfig()
	v.SetDefault("loader.libs", def.LibNames)
	v.SetDefault("loader.native_dir", def.NativeDir)
	v.SetDefault("loader.resource_root", def.ResourceRoot)
	v.SetDefault("loader.temp_dir", "")
	v.SetDefault("resources", "")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
}

// Load reads configPath, or a nativeload.{yaml,toml,json} found next to
// the executable, in $HOME/.nativeload or the working directory. A missing
// default config file is not an error. Flags from flags that were set on
// the command line take precedence over the environment and the file;
// flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("nativeload")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("nativeload")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.nativeload")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{
		Loader: nativeload.Config{
			LibNames:     stringList(v, "loader.libs"),
			NativeDir:    v.GetString("loader.native_dir"),
			ResourceRoot: v.GetString("loader.resource_root"),
			TempDir:      v.GetString("loader.temp_dir"),
		},
		Resources: v.GetString("resources"),
		Logger: &Logger{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
			Output: v.GetString("logger.output"),
		},
	}, nil
}

// stringList reads a list key. Plain strings, as environment variables
// deliver them, are split on commas.
func stringList(v *viper.Viper, key string) []string {
	raw, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringSlice(key)
	}

	var list []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
