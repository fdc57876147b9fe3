// Package main provides the CLI entry point for xlpics.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ukaji3/xlpics-go/pkg/xlpics"
	"github.com/ukaji3/xlpics-go/pkg/xlpics/config"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var (
		cfgFile string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:   "xlpics",
		Short: "Export pictures embedded in a spreadsheet column as JPEG files",
		Long: `xlpics reads one sheet of an xlsx workbook, finds the pictures anchored in
the photo column and saves each one as <KEY>.jpg, where KEY is the
upper-cased value of the key column on the same row.

Settings come from flags, XLPICS_* environment variables, or xlpics.yaml
(current directory or ~/.config/xlpics).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			used, err := config.ReadFile(v, cfgFile)
			if err != nil {
				return err
			}
			if used != "" {
				newLogger(cmd, verbose).Debug("using config file", "path", used)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			run(cfg, newLogger(cmd, verbose))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./xlpics.yaml or ~/.config/xlpics/xlpics.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every saved file")
	flags.StringP("file", "f", xlpics.DefaultFile, "source xlsx workbook")
	flags.StringP("output-dir", "o", xlpics.DefaultOutputDir, "directory receiving the JPEG files")
	flags.StringP("sheet", "s", xlpics.DefaultSheet, "sheet name")
	flags.Int("header-row", xlpics.DefaultHeaderRow, "1-based row holding the column labels")
	flags.String("photo-column", xlpics.DefaultPhotoColumn, "header label of the picture column")
	flags.String("key-column", xlpics.DefaultKeyColumn, "header label of the column naming the files")
	flags.Int("quality", xlpics.DefaultConfig().JPEGQuality, "JPEG quality (1-100)")
	flags.String("on-malformed-key", string(xlpics.MalformedKeyAbort), "abort or skip when a key cell has no usable value")

	bindFlags(v, rootCmd)

	rootCmd.AddCommand(newInspectCmd(v), newVersionCmd())
	return rootCmd
}

// bindFlags connects persistent flags to their config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	for key, flag := range map[string]string{
		config.KeyFile:           "file",
		config.KeyOutputDir:      "output-dir",
		config.KeySheet:          "sheet",
		config.KeyHeaderRow:      "header-row",
		config.KeyPhotoColumn:    "photo-column",
		config.KeyKeyColumn:      "key-column",
		config.KeyJPEGQuality:    "quality",
		config.KeyOnMalformedKey: "on-malformed-key",
	} {
		// Lookup only fails for an unknown flag name, which the table above rules out.
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// run executes one extraction. Failures are reported on a single log line
// and do not change the exit status.
func run(cfg xlpics.Config, logger *slog.Logger) {
	report, err := xlpics.Run(cfg, logger)
	if report != nil {
		logger.Info("extraction finished",
			"saved", len(report.Saved),
			"skipped", report.Skipped(),
			"ignored", report.Ignored,
		)
	}
	if err != nil {
		logger.Error("extraction failed", "error", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of xlpics",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xlpics %s\n", version)
		},
	}
}
