// Package config loads optional defaults from a .slatraker config file and
// SLATRAKER_* environment variables. Flags always override what is here.
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the resolved defaults for an invocation.
type Config struct {
	Manifest   string
	RunResults string
	Edges      string
	Runtimes   string
	Format     string
	Interval   time.Duration
	NoColor    bool
}

// Init points viper at the config sources. An explicit file path wins;
// otherwise .slatraker.toml is searched in the cwd and the home directory.
// A missing config file is fine; defaults apply.
func Init(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".slatraker")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("SLATRAKER")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// Load reads configuration from viper, applying built-in defaults for any
// unset key.
func Load() Config {
	viper.SetDefault("manifest", "")
	viper.SetDefault("run_results", "")
	viper.SetDefault("edges", "")
	viper.SetDefault("runtimes", "")
	viper.SetDefault("format", "dot")
	viper.SetDefault("interval_seconds", 1)
	viper.SetDefault("no_color", false)

	return Config{
		Manifest:   viper.GetString("manifest"),
		RunResults: viper.GetString("run_results"),
		Edges:      viper.GetString("edges"),
		Runtimes:   viper.GetString("runtimes"),
		Format:     viper.GetString("format"),
		Interval:   time.Duration(viper.GetInt("interval_seconds")) * time.Second,
		NoColor:    viper.GetBool("no_color"),
	}
}
