package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefix for jspack configuration.
const envPrefix = "JSPACK"

// ConfigName is the base name of a discovered configuration file. Any
// extension viper understands is accepted.
const ConfigName = "jspack"

// Loader reads configuration from a file and the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader. Environment variables take precedence over
// file values.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("context", "JSPACK_CONTEXT")
	_ = v.BindEnv("output.path", "JSPACK_OUTPUT_PATH")
	_ = v.BindEnv("output.filename", "JSPACK_OUTPUT_FILENAME")
	_ = v.BindEnv("output.bucket.accessKey", "JSPACK_BUCKET_ACCESS_KEY")
	_ = v.BindEnv("output.bucket.secretKey", "JSPACK_BUCKET_SECRET_KEY")

	v.SetDefault("output.path", DefaultOutputPath)

	return &Loader{v: v}
}

// Load reads configFile, or a jspack.* file in dir when configFile is empty.
// A missing discovered file is not an error; a missing explicit file is.
func (l *Loader) Load(configFile, dir string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, &Error{Field: "config", Message: "cannot read " + configFile, Cause: err}
		}
		l.v.SetConfigFile(configFile)
	} else {
		if dir == "" {
			dir = "."
		}
		l.v.SetConfigName(ConfigName)
		l.v.AddConfigPath(dir)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &Error{Field: "config", Message: "reading config file", Cause: err}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Field: "config", Message: "decoding", Cause: err}
	}

	// JSPACK_ENTRY names a single entry and wins over the file.
	if entry, ok := os.LookupEnv(envPrefix + "_ENTRY"); ok {
		cfg.Entry = entry
	} else if file := l.v.ConfigFileUsed(); file != "" {
		entry, ok, err := rawEntry(file)
		if err != nil {
			return nil, &Error{Field: "entry", Message: "decoding", Cause: err}
		}
		if ok {
			cfg.Entry = entry
		}
	}
	return &cfg, nil
}

// File returns the configuration file that was read, if any.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Set overrides a key, with the same precedence as a flag. Map keys are
// lowercased, so entries are overridden on the loaded Config instead.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}
