package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/services/script_engine"
)

func newRootCmd() *cobra.Command {
	var (
		outPath    string
		saveParams string
	)

	cmd := &cobra.Command{
		Use:   "macrogen <request.yaml>",
		Short: "Compile a scan request into a microscope macro",
		Long: `Compile a YAML scan request into the microscope's native macro language.

The request uses the same fields as the TRACE_OVER packet:
wafers (or flat bottom_x/bottom_y/top_x/top_y), magnification,
pics_until_focus, initial_wait_time, focus_wait_time, initial_focus.

Examples:
  macrogen request.yaml
  macrogen request.yaml --out microscope_macro.mac`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadRequest(args[0])
			if err != nil {
				return err
			}

			script, err := script_engine.NewCompiler(nil).Compile(req)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				file, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create macro file: %w", err)
				}
				defer file.Close()
				out = file
			}

			count, err := script_engine.WriteMacro(out, script, saveParams)
			if err != nil {
				return fmt.Errorf("write macro: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Generated %d points and %d commands\n", len(script.Points), count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "macro file (stdout when empty)")
	cmd.Flags().StringVar(&saveParams, "save-params", script_engine.DefaultSaveParams, "arguments of SaveNext_Images")
	return cmd
}

func loadRequest(path string) (models.ScanRequest, error) {
	var req models.ScanRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read request file: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("unmarshal request: %w", err)
	}
	return req, nil
}
