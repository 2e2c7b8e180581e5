//go:build !unix

package sandbox

import "os"

type signalRelay struct{}

func newSignalRelay() *signalRelay { return &signalRelay{} }

func (r *signalRelay) start(*os.Process) {}

func (r *signalRelay) stop() {}

func exitCode(state *os.ProcessState) int {
	return state.ExitCode()
}
