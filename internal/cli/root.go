package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/catalog"
	"github.com/roach88/exprsql/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to exprsql.yaml; empty uses defaults

	// Getenv resolves ${VAR} references in the config file. Nil means
	// os.Getenv.
	Getenv func(string) string

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the exprsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "exprsql",
		Short: "exprsql - typed SQL expressions",
		Long:  "Build typed SQL expressions from YAML documents and render them for PostgreSQL, MySQL and SQLite.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Subcommands silence cobra's error printing, so report here.
			if !isValidFormat(opts.Format) {
				err := fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
			}
			cfg, err := opts.Settings()
			if err != nil {
				return opts.formatter(cmd).Fail(ExitCommandError, withCode(ErrCodeConfig, err))
			}
			level := cfg.LogLevel()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to exprsql.yaml")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

// Settings loads the config file once and caches it.
func (o *RootOptions) Settings() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	getenv := o.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg, err := config.Load(o.Config, getenv)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// configCatalog loads the catalog named by the config file, or returns nil
// when none is configured.
func (o *RootOptions) configCatalog() (*catalog.Catalog, error) {
	cfg, err := o.Settings()
	if err != nil {
		return nil, withCode(ErrCodeConfig, err)
	}
	if cfg.Catalog == "" {
		return nil, nil
	}
	return loadCatalog(cfg.Catalog)
}

// loadCatalog loads a CUE file or, for a directory, its CUE package.
func loadCatalog(path string) (*catalog.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return catalog.LoadDir(path)
	}
	return catalog.LoadFile(path)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
