// Package config loads xlpics.Config from defaults, an optional YAML file,
// XLPICS_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ukaji3/xlpics-go/pkg/xlpics"
)

// EnvPrefix is prepended to every environment variable, e.g. XLPICS_SHEET.
const EnvPrefix = "XLPICS"

// Config keys, shared by the YAML file, environment and flag bindings.
const (
	KeyFile           = "file"
	KeyOutputDir      = "output_dir"
	KeySheet          = "sheet"
	KeyHeaderRow      = "header_row"
	KeyPhotoColumn    = "photo_column"
	KeyKeyColumn      = "key_column"
	KeyJPEGQuality    = "jpeg_quality"
	KeyOnMalformedKey = "on_malformed_key"
)

// New returns a viper instance carrying the defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()

	d := xlpics.DefaultConfig()
	v.SetDefault(KeyFile, d.File)
	v.SetDefault(KeyOutputDir, d.OutputDir)
	v.SetDefault(KeySheet, d.Sheet)
	v.SetDefault(KeyHeaderRow, d.HeaderRow)
	v.SetDefault(KeyPhotoColumn, d.PhotoColumn)
	v.SetDefault(KeyKeyColumn, d.KeyColumn)
	v.SetDefault(KeyJPEGQuality, d.JPEGQuality)
	v.SetDefault(KeyOnMalformedKey, string(d.OnMalformedKey))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile loads cfgFile, or searches ./xlpics.yaml and
// ~/.config/xlpics/xlpics.yaml when cfgFile is empty. It returns the path of
// the file used, or "" when none was found. A missing searched file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("xlpics")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "xlpics"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (xlpics.Config, error) {
	var cfg xlpics.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return xlpics.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.OnMalformedKey = xlpics.MalformedKeyPolicy(strings.ToLower(string(cfg.OnMalformedKey)))
	if err := cfg.Validate(); err != nil {
		return xlpics.Config{}, err
	}
	return cfg, nil
}
