package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldog/jspack/pkg/emit"
	"github.com/coldog/jspack/pkg/testutil"
	"github.com/coldog/jspack/pkg/transform"
)

func TestLoaderLoad(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		dir := t.TempDir()
		configFile := testutil.WriteFile(t, dir, "jspack.yaml", `
context: ./app
entry:
  main: ./src/index.js
  admin: ./src/admin.js
output:
  path: ./build
  filename: "[name]-[hash].js"
resolve:
  extensions: [".js", ".json", ".txt"]
module:
  rules:
    - test: '\.txt$'
      use: [raw]
    - test: '\.js$'
      loader: strip-bom
`)

		cfg, err := NewLoader().Load(configFile, "")
		require.NoError(t, err)
		assert.Equal(t, "./app", cfg.Context)
		assert.Equal(t, map[string]any{"main": "./src/index.js", "admin": "./src/admin.js"}, cfg.Entry)
		assert.Equal(t, "./build", cfg.Output.Path)
		assert.Equal(t, "[name]-[hash].js", cfg.Output.Filename)
		assert.Equal(t, []string{".js", ".json", ".txt"}, cfg.Resolve.Extensions)
		assert.Equal(t, []transform.Rule{
			{Test: `\.txt$`, Use: []string{"raw"}},
			{Test: `\.js$`, Loader: "strip-bom"},
		}, cfg.Module.Rules)
	})

	t.Run("discovers jspack file in dir", func(t *testing.T) {
		dir := t.TempDir()
		testutil.WriteFile(t, dir, "jspack.json", `{"entry": "./index.js"}`)

		loader := NewLoader()
		cfg, err := loader.Load("", dir)
		require.NoError(t, err)
		assert.Equal(t, "./index.js", cfg.Entry)
		assert.Equal(t, filepath.Join(dir, "jspack.json"), loader.File())
	})

	t.Run("no discovered file uses defaults", func(t *testing.T) {
		cfg, err := NewLoader().Load("", t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, cfg.Entry)
		assert.Equal(t, DefaultOutputPath, cfg.Output.Path)
	})

	t.Run("missing explicit file is a config error", func(t *testing.T) {
		_, err := NewLoader().Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalid)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed file", func(t *testing.T) {
		configFile := testutil.WriteFile(t, t.TempDir(), "jspack.yaml", "entry: [unclosed\n")
		_, err := NewLoader().Load(configFile, "")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("env vars override file values", func(t *testing.T) {
		t.Setenv("JSPACK_OUTPUT_PATH", "/env/out")
		t.Setenv("JSPACK_CONTEXT", "/env/ctx")

		configFile := testutil.WriteFile(t, t.TempDir(), "jspack.yaml", "context: ./file\noutput:\n  path: ./file-out\n")
		cfg, err := NewLoader().Load(configFile, "")
		require.NoError(t, err)
		assert.Equal(t, "/env/out", cfg.Output.Path)
		assert.Equal(t, "/env/ctx", cfg.Context)
	})

	t.Run("entry names keep their case", func(t *testing.T) {
		files := map[string]string{
			"jspack.yaml": "entry:\n  mainPage: ./src/index.js\n  AdminPanel: ./src/admin.js\n",
			"jspack.json": `{"entry": {"mainPage": "./src/index.js", "AdminPanel": "./src/admin.js"}}`,
			"jspack.toml": "[entry]\nmainPage = \"./src/index.js\"\nAdminPanel = \"./src/admin.js\"\n",
		}
		for name, content := range files {
			t.Run(name, func(t *testing.T) {
				configFile := testutil.WriteFile(t, t.TempDir(), name, content)
				cfg, err := NewLoader().Load(configFile, "")
				require.NoError(t, err)
				assert.Equal(t, map[string]any{"mainPage": "./src/index.js", "AdminPanel": "./src/admin.js"}, cfg.Entry)
			})
		}
	})

	t.Run("entry env var replaces file entries", func(t *testing.T) {
		t.Setenv("JSPACK_ENTRY", "./env.js")

		configFile := testutil.WriteFile(t, t.TempDir(), "jspack.yaml", "entry:\n  mainPage: ./src/index.js\n")
		cfg, err := NewLoader().Load(configFile, "")
		require.NoError(t, err)
		assert.Equal(t, "./env.js", cfg.Entry)
	})

	t.Run("set overrides file values", func(t *testing.T) {
		configFile := testutil.WriteFile(t, t.TempDir(), "jspack.yaml", "output:\n  filename: a.js\n")
		loader := NewLoader()
		loader.Set("output.filename", "[name].bundle.js")
		cfg, err := loader.Load(configFile, "")
		require.NoError(t, err)
		assert.Equal(t, "[name].bundle.js", cfg.Output.Filename)
	})
}

func TestNormalize(t *testing.T) {
	root := testutil.WriteTree(t, testutil.Tree{
		"src/index.js": ``,
		"src/admin.js": ``,
	})

	t.Run("string entry is main", func(t *testing.T) {
		opts, err := Normalize(&Config{Entry: "./src/index.js", Output: OutputConfig{Path: "dist"}}, root, nil)
		require.NoError(t, err)
		assert.Equal(t, root, opts.Root)
		assert.Equal(t, []Entry{{Name: "main", Path: filepath.Join(root, "src", "index.js")}}, opts.Entries)
		assert.Equal(t, filepath.Join(root, "dist"), opts.OutputPath)
		assert.Equal(t, "[name].js", opts.Filename)
		assert.Equal(t, []string{".js", ".json"}, opts.Extensions)
		assert.NotNil(t, opts.Pipeline)
		assert.Nil(t, opts.Bucket)
	})

	t.Run("map entries are sorted by name", func(t *testing.T) {
		opts, err := Normalize(&Config{
			Entry:  map[string]any{"main": "src/index.js", "admin": "src/admin.js"},
			Output: OutputConfig{Path: "/abs/out"},
		}, root, nil)
		require.NoError(t, err)
		require.Len(t, opts.Entries, 2)
		assert.Equal(t, "admin", opts.Entries[0].Name)
		assert.Equal(t, "main", opts.Entries[1].Name)
		assert.Equal(t, filepath.FromSlash("/abs/out"), opts.OutputPath)
	})

	t.Run("entry names are case sensitive", func(t *testing.T) {
		opts, err := Normalize(&Config{
			Entry:  map[string]string{"mainPage": "src/index.js", "Admin": "src/admin.js"},
			Output: OutputConfig{Path: "dist"},
		}, root, nil)
		require.NoError(t, err)
		require.Len(t, opts.Entries, 2)
		assert.Equal(t, "Admin", opts.Entries[0].Name)
		assert.Equal(t, "mainPage", opts.Entries[1].Name)
	})

	t.Run("context is relative to cwd", func(t *testing.T) {
		opts, err := Normalize(&Config{Context: "src", Entry: "index.js", Output: OutputConfig{Path: "dist"}}, root, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "src"), opts.Root)
		assert.Equal(t, filepath.Join(root, "src", "index.js"), opts.Entries[0].Path)
	})

	t.Run("rules are compiled", func(t *testing.T) {
		opts, err := Normalize(&Config{
			Entry:  "src/index.js",
			Output: OutputConfig{Path: "dist"},
			Module: ModuleConfig{Rules: []transform.Rule{{Test: `\.txt$`, Use: []string{"raw"}}}},
		}, root, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"raw"}, opts.Pipeline.Chain("/x/notes.txt"))
	})

	t.Run("bucket", func(t *testing.T) {
		bucket := emit.BucketConfig{Endpoint: "localhost:9000", Name: "bundles", AccessKey: "a", SecretKey: "s"}
		opts, err := Normalize(&Config{Entry: "src/index.js", Output: OutputConfig{Path: "dist", Bucket: bucket}}, root, nil)
		require.NoError(t, err)
		require.NotNil(t, opts.Bucket)
		assert.Equal(t, "bundles", opts.Bucket.Name)
	})
}

func TestNormalizeErrors(t *testing.T) {
	root := testutil.WriteTree(t, testutil.Tree{
		"src/index.js": ``,
		"src/admin.js": ``,
	})
	ok := func() *Config {
		return &Config{Entry: "src/index.js", Output: OutputConfig{Path: "dist"}}
	}

	tests := []struct {
		name  string
		edit  func(c *Config)
		field string
	}{
		{"no entries", func(c *Config) { c.Entry = nil }, "entry"},
		{"empty entry map", func(c *Config) { c.Entry = map[string]any{} }, "entry"},
		{"empty entry path", func(c *Config) { c.Entry = "" }, "entry"},
		{"empty entry name", func(c *Config) { c.Entry = map[string]any{"": "src/index.js"} }, "entry"},
		{"empty mapped path", func(c *Config) { c.Entry = map[string]any{"main": " "} }, "entry.main"},
		{"non string path", func(c *Config) { c.Entry = map[string]any{"main": 3} }, "entry.main"},
		{"names differ only by case", func(c *Config) {
			c.Entry = map[string]any{"admin": "src/admin.js", "Admin": "src/index.js"}
		}, "entry.admin"},
		{"wrong entry type", func(c *Config) { c.Entry = []any{"src/index.js"} }, "entry"},
		{"missing entry file", func(c *Config) { c.Entry = "src/missing.js" }, "entry.main"},
		{"entry is a directory", func(c *Config) { c.Entry = "src" }, "entry.main"},
		{"missing context", func(c *Config) { c.Context = "nope" }, "context"},
		{"empty output path", func(c *Config) { c.Output.Path = "" }, "output.path"},
		{"unknown placeholder", func(c *Config) { c.Output.Filename = "[chunkhash].js" }, "output.filename"},
		{"escaping filename", func(c *Config) { c.Output.Filename = "../[name].js" }, "output.filename"},
		{"filename without name", func(c *Config) {
			c.Entry = map[string]any{"main": "src/index.js", "admin": "src/admin.js"}
			c.Output.Filename = "bundle.js"
		}, "output.filename"},
		{"invalid regexp", func(c *Config) { c.Module.Rules = []transform.Rule{{Test: "(", Use: []string{"raw"}}} }, "module.rules"},
		{"unknown transform", func(c *Config) { c.Module.Rules = []transform.Rule{{Test: "x", Use: []string{"babel"}}} }, "module.rules"},
		{"rule without use", func(c *Config) { c.Module.Rules = []transform.Rule{{Test: "x"}} }, "module.rules"},
		{"incomplete bucket", func(c *Config) { c.Output.Bucket = emit.BucketConfig{Name: "bundles"} }, "output.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ok()
			tt.edit(cfg)
			_, err := Normalize(cfg, root, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)

			var cerr *Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}

	t.Run("single entry may use a fixed filename", func(t *testing.T) {
		cfg := ok()
		cfg.Output.Filename = "bundle.js"
		_, err := Normalize(cfg, root, nil)
		assert.NoError(t, err)
	})

	t.Run("rule errors keep their cause", func(t *testing.T) {
		cfg := ok()
		cfg.Module.Rules = []transform.Rule{{Test: "x", Use: []string{"babel"}}}
		_, err := Normalize(cfg, root, nil)
		assert.ErrorIs(t, err, transform.ErrInvalidRule)
		assert.Contains(t, err.Error(), `unknown transform "babel"`)
	})
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		in, name, path string
	}{
		{"admin=./src/admin.js", "admin", "./src/admin.js"},
		{"./src/index.js", "index", "./src/index.js"},
		{"lib/util.min.js", "util.min", "lib/util.min.js"},
	}
	for _, tt := range tests {
		name, path := ParseEntry(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.path, path, tt.in)
	}
}
