package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/neoclaw-ai/cordon/internal/grants"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type grantsReport struct {
	Script string     `json:"script" yaml:"script"`
	Mode   string     `json:"mode" yaml:"mode"`
	Config string     `json:"config" yaml:"config"`
	Grants grants.Set `json:"grants" yaml:"grants"`
}

func newGrantsCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "grants <script>",
		Short: "Print the grants a script would run with, without running it",
		Args:  requireScript,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := args[0]
			p, err := opts.prepare(script)
			if err != nil {
				return err
			}
			report := grantsReport{
				Script: script,
				Mode:   grants.DetectMode(script).String(),
				Config: p.cfg.Path,
				Grants: p.grants,
			}
			return writeReport(cmd.OutOrStdout(), output, report)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json, or yaml")

	return cmd
}

func writeReport(w io.Writer, format string, report grantsReport) error {
	switch format {
	case outputText:
		for _, flag := range report.Grants.Args() {
			if _, err := fmt.Fprintln(w, flag); err != nil {
				return err
			}
		}
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unsupported output format %q (allowed: %q, %q, %q)", ErrUsage, format, outputText, outputJSON, outputYAML)
	}
}
