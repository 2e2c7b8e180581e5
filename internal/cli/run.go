package cli

import (
	"strings"

	"github.com/neoclaw-ai/cordon/internal/grants"
	"github.com/neoclaw-ai/cordon/internal/logging"
	"github.com/neoclaw-ai/cordon/internal/sandbox"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script> [args...]",
		Short: "Run a script with the grants derived from the capability config",
		Args:  requireScript,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, scriptArgs := args[0], args[1:]
			p, err := opts.prepare(script)
			if err != nil {
				return err
			}

			logger := logging.Logger()
			logger.Info("runtime isolation active", "script", script, "mode", grants.DetectMode(script).String())
			logger.Info("grant flags", "flags", strings.Join(p.grants.Args(), " "))

			return sandbox.Run(sandbox.Launch{
				Runtime:    p.runtime,
				Grants:     p.grants,
				Script:     script,
				ScriptArgs: scriptArgs,
				Stdin:      cmd.InOrStdin(),
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			})
		},
	}
	// Everything after the script belongs to the script.
	cmd.Flags().SetInterspersed(false)
	return cmd
}
