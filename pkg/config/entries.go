package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// rawEntry re-reads the entry block of file with its keys as written. viper
// lowercases map keys, which would rename entries. The second result is
// false when file has no entry block or a format without a case preserving
// decoder.
func rawEntry(file string) (any, bool, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, false, err
	}

	var doc struct {
		Entry any `yaml:"entry" toml:"entry"`
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc.Entry, doc.Entry != nil, nil
}
