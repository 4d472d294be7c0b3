package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coldog/jspack/pkg/bundler"
	"github.com/coldog/jspack/pkg/config"
	"github.com/coldog/jspack/pkg/hooks"
	"github.com/coldog/jspack/pkg/output"
)

type buildFlags struct {
	context  string
	entries  []string
	out      string
	filename string
	exts     []string
	stats    string
	dryRun   bool
}

// NewBuildCmd creates the build command.
func NewBuildCmd(g *globalFlags) *cobra.Command {
	f := &buildFlags{}

	c := &cobra.Command{
		Use:   "build [entry...]",
		Short: "Bundle the configured entries",
		Long: `Bundle every entry into one script.

Positional arguments are entry files named after their base name without
extension. Entries given on the command line replace the configured ones.`,
		Example: `  jspack build ./src/index.js
  jspack build --entry admin=./src/admin.js --entry main=./src/index.js -o dist
  jspack build --stats json --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, g, f)
		},
	}

	c.Flags().StringVar(&f.context, "context", "", "Root directory for module ids (env: JSPACK_CONTEXT)")
	c.Flags().StringArrayVar(&f.entries, "entry", nil, "Entry as name=path, repeatable")
	c.Flags().StringVarP(&f.out, "out", "o", "", "Output directory (env: JSPACK_OUTPUT_PATH)")
	c.Flags().StringVar(&f.filename, "filename", "", "Asset filename template with [name] and [hash] (env: JSPACK_OUTPUT_FILENAME)")
	c.Flags().StringArrayVar(&f.exts, "ext", nil, "Extension probed for extensionless requires, repeatable")
	c.Flags().StringVar(&f.stats, "stats", "", "Print build stats to stdout: yaml, json")
	c.Flags().BoolVar(&f.dryRun, "dry-run", false, "Build and render without writing assets")

	return c
}

func runBuild(cmd *cobra.Command, args []string, g *globalFlags, f *buildFlags) error {
	var format output.Format
	if f.stats != "" {
		var ok bool
		if format, ok = output.ParseFormat(f.stats); !ok {
			return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("--stats: unknown format %q", f.stats)}
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	loader := config.NewLoader()
	entries, err := applyFlags(loader, args, f)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	cfg, err := loader.Load(g.config, cwd)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	if len(entries) > 0 {
		cfg.Entry = entries
	}
	if file := loader.File(); file != "" {
		output.Debug("loaded config", "file", file)
	}

	opts, err := config.Normalize(cfg, cwd, nil)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	c := bundler.New(opts)
	c.Hooks.Use(hooks.LogPlugin{})
	c.DryRun = f.dryRun

	stats, err := c.Run(cmd.Context())
	if err != nil {
		return &ExitError{Code: ExitBuildError, Err: err}
	}

	if f.stats != "" {
		fmt.Fprint(cmd.ErrOrStderr(), output.FormatSummary(stats.Summary(), stats.DryRun))
		return output.Encode(cmd.OutOrStdout(), stats, format)
	}
	fmt.Fprint(cmd.OutOrStdout(), output.FormatSummary(stats.Summary(), stats.DryRun))
	return nil
}

// applyFlags overrides configuration keys with the flags that were given.
// It returns the entries named on the command line, which replace the
// configured ones after loading.
func applyFlags(loader *config.Loader, args []string, f *buildFlags) (map[string]any, error) {
	if f.context != "" {
		loader.Set("context", f.context)
	}
	if f.out != "" {
		loader.Set("output.path", f.out)
	}
	if f.filename != "" {
		loader.Set("output.filename", f.filename)
	}
	if len(f.exts) > 0 {
		loader.Set("resolve.extensions", f.exts)
	}

	entries := map[string]any{}
	add := func(spec string) error {
		name, path := config.ParseEntry(spec)
		if _, dup := entries[name]; dup {
			return &config.Error{Field: "entry." + name, Message: "given more than once"}
		}
		entries[name] = path
		return nil
	}
	for _, a := range args {
		if err := add(a); err != nil {
			return nil, err
		}
	}
	for _, e := range f.entries {
		if err := add(e); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
