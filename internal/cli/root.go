// Package cli provides the sentinel command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"HeikinSentinel/internal/cache"
	"HeikinSentinel/internal/config"
	"HeikinSentinel/internal/logging"
)

// Version information
const Version = "0.3.0"

// App holds what every command shares once the config is loaded.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
	Err    io.Writer

	cache cache.Cache
}

// NewRootCmd creates the root command. out receives reports, errOut logs.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	app := &App{Out: out, Err: errOut, Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Heikin-Ashi reversal scanner for the S&P/TSX",
		Long: `sentinel scans Toronto Stock Exchange listings for three red Heikin-Ashi
candles followed by a green one on daily bars.

The universe comes from the S&P/TSX Composite or TSX 60 constituent tables,
a CSV file or a built-in list. Prices come from Yahoo Finance by default.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return app.load(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newScanCmd(app),
		newUniverseCmd(app),
		newChartCmd(app),
		newServeCmd(app),
		newVersionCmd(app),
	)
	return rootCmd
}

func (a *App) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	a.Config = cfg
	a.Logger = logging.New(logging.Options{Level: level, Console: a.Err, FilePath: cfg.Log.FilePath})
	a.Logger.Debug().Str("config", path).Msg("config loaded")
	return nil
}

func (a *App) close() error {
	if a.cache == nil {
		return nil
	}
	err := a.cache.Close()
	a.cache = nil
	return err
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(app.Out, "sentinel %s\n", Version)
		},
	}
}
