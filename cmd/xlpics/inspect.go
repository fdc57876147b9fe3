package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ukaji3/xlpics-go/pkg/xlpics"
	"github.com/ukaji3/xlpics-go/pkg/xlpics/config"
	"github.com/ukaji3/xlpics-go/pkg/xlpics/output"
)

func newInspectCmd(v *viper.Viper) *cobra.Command {
	var (
		format string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the pictures of the sheet and the file name each would get",
		Long: `inspect prints every picture found on the configured sheet with its
anchor cell, size, media part and the key read from the key column.
Nothing is written to the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			result, err := xlpics.Inspect(cfg)
			if err != nil {
				return fmt.Errorf("inspection failed: %w", err)
			}

			data, err := output.Render(result, outFormat, pretty)
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(output.FormatJSON), "output format: json or yaml")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty-print JSON output")

	return cmd
}
