// Package cli wires Cobra subcommands to the grant compiler and the launcher; it is a thin controller with no business logic.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/neoclaw-ai/cordon/internal/config"
	"github.com/neoclaw-ai/cordon/internal/grants"
	"github.com/neoclaw-ai/cordon/internal/logging"
	"github.com/neoclaw-ai/cordon/internal/sandbox"
	"github.com/spf13/cobra"
)

// ErrUsage reports a missing or unknown subcommand or argument.
var ErrUsage = errors.New("usage error")

const runtimeEnvVar = "CORDON_RUNTIME"

type rootOptions struct {
	verbose    bool
	configPath string
	runtime    string
}

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "cordon",
		Short: "Run a script under the host runtime's permission model",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError(cmd, "unknown command %q", args[0])
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.verbose {
				logging.SetLevel(slog.LevelDebug)
			} else {
				logging.SetLevel(slog.LevelInfo)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usageError(cmd, "a subcommand is required")
		},
	}

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newGrantsCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newVersionCmd())
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the capability config (default ./"+config.FileName+")")
	root.PersistentFlags().StringVar(&opts.runtime, "runtime", runtimeDefault(), "Host runtime command, split with shell quoting (env "+runtimeEnvVar+")")

	return root
}

func runtimeDefault() string {
	if rt := os.Getenv(runtimeEnvVar); rt != "" {
		return rt
	}
	return sandbox.DefaultRuntime
}

// requireScript validates the single script argument, with trailing script arguments allowed.
func requireScript(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return usageError(cmd, "a script path is required")
	}
	return nil
}

func usageError(cmd *cobra.Command, format string, args ...any) error {
	fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// prepared holds everything derived before a child could be spawned.
type prepared struct {
	cfg     *config.Config
	runtime sandbox.Runtime
	env     grants.Environment
	grants  grants.Set
}

// prepare loads config, resolves the runtime, and compiles grants for script.
// Any failure here happens before a child process exists.
func (o *rootOptions) prepare(script string) (*prepared, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	rt, err := sandbox.ResolveRuntime(o.runtime)
	if err != nil {
		return nil, err
	}
	env, err := grants.DetectEnvironment(rt.Path)
	if err != nil {
		return nil, err
	}
	warnStartupConditions(cfg, env)

	return &prepared{
		cfg:     cfg,
		runtime: rt,
		env:     env,
		grants:  grants.Compile(cfg.Permissions, script, env),
	}, nil
}

// loadConfig loads --config, or the default document in the working directory.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func (o *rootOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	workDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return config.DefaultPath(workDir), nil
}
