//go:build unix

package sandbox

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// Terminal-generated signals already reach the child through the shared
// process group; cordon only absorbs them so it outlives the child.
var (
	relayedSignals  = []os.Signal{unix.SIGTERM, unix.SIGHUP}
	absorbedSignals = []os.Signal{unix.SIGINT, unix.SIGQUIT}
)

type signalRelay struct {
	ch   chan os.Signal
	done chan struct{}
}

func newSignalRelay() *signalRelay {
	r := &signalRelay{
		ch:   make(chan os.Signal, 4),
		done: make(chan struct{}),
	}
	signal.Notify(r.ch, append(append([]os.Signal{}, relayedSignals...), absorbedSignals...)...)
	return r
}

func (r *signalRelay) start(process *os.Process) {
	go func() {
		for {
			select {
			case sig := <-r.ch:
				if isRelayed(sig) {
					_ = process.Signal(sig)
				}
			case <-r.done:
				return
			}
		}
	}()
}

func (r *signalRelay) stop() {
	signal.Stop(r.ch)
	close(r.done)
}

func isRelayed(sig os.Signal) bool {
	for _, s := range relayedSignals {
		if s == sig {
			return true
		}
	}
	return false
}

// exitCode follows the shell convention of 128+N for a child killed by signal N.
func exitCode(state *os.ProcessState) int {
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return state.ExitCode()
}
