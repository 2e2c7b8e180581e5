// Package sandbox launches the host runtime with its permission engine
// configured from a compiled grant set and mirrors the child's exit status.
package sandbox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/neoclaw-ai/cordon/internal/grants"
)

// DefaultRuntime is the host runtime command used when none is configured.
const DefaultRuntime = "node"

// SpawnFailureExitCode is reported when the runtime could not be started at
// all, as opposed to a script that ran and failed.
const SpawnFailureExitCode = 127

// Runtime is the host runtime executable plus arguments placed before the grant flags.
type Runtime struct {
	Path string
	Args []string
}

// ResolveRuntime splits command with shell quoting rules and locates its executable.
// The executable path is made absolute with symlinks resolved so its
// directory is the runtime's real installation directory.
func ResolveRuntime(command string) (Runtime, error) {
	parts, err := shlex.Split(command)
	if err != nil {
		return Runtime{}, fmt.Errorf("parse runtime command %q: %w", command, err)
	}
	if len(parts) == 0 {
		return Runtime{}, errors.New("runtime command is required")
	}

	path, err := exec.LookPath(parts[0])
	if err != nil {
		return Runtime{}, &SpawnError{Runtime: parts[0], Err: err}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return Runtime{Path: path, Args: parts[1:]}, nil
}

// IsCordoned reports whether the current process was itself started by cordon.
func IsCordoned() bool {
	return strings.TrimSpace(os.Getenv(grants.EnvVar)) != ""
}

// Launch describes one child process.
type Launch struct {
	Runtime    Runtime
	Grants     grants.Set
	Script     string
	ScriptArgs []string

	// Nil streams inherit the parent's.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Argv returns the child's arguments after the executable: runtime arguments,
// one flag per grant in emission order, the script, then its arguments.
func (l Launch) Argv() []string {
	flags := l.Grants.Args()
	argv := make([]string, 0, len(l.Runtime.Args)+len(flags)+1+len(l.ScriptArgs))
	argv = append(argv, l.Runtime.Args...)
	argv = append(argv, flags...)
	argv = append(argv, l.Script)
	argv = append(argv, l.ScriptArgs...)
	return argv
}

// Run starts the child and waits for it to exit on its own. Termination
// signals sent to cordon are relayed to the child. It returns nil on a zero
// exit, *ExitError for any other exit, and *SpawnError when the child could
// not be started.
func Run(l Launch) error {
	encoded, err := l.Grants.Encode()
	if err != nil {
		return err
	}

	cmd := exec.Command(l.Runtime.Path, l.Argv()...)
	cmd.Env = append(os.Environ(),
		grants.EnvVar+"="+encoded,
		grants.LauncherEnvVar+"="+strconv.Itoa(os.Getpid()),
	)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if l.Stdin != nil {
		cmd.Stdin = l.Stdin
	}
	if l.Stdout != nil {
		cmd.Stdout = l.Stdout
	}
	if l.Stderr != nil {
		cmd.Stderr = l.Stderr
	}

	// Subscribe before Start so a signal arriving during startup is queued, not fatal.
	relay := newSignalRelay()
	if err := cmd.Start(); err != nil {
		relay.stop()
		return &SpawnError{Runtime: l.Runtime.Path, Err: err}
	}
	relay.start(cmd.Process)
	waitErr := cmd.Wait()
	relay.stop()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return fmt.Errorf("wait for %s: %w", l.Runtime.Path, waitErr)
		}
	}
	if code := exitCode(cmd.ProcessState); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
