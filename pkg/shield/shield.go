package shield

import (
	"context"
	"os"
	"strconv"
	"sync"

	"github.com/neoclaw-ai/cordon/internal/grants"
	"github.com/neoclaw-ai/cordon/internal/logging"
)

var (
	ambientOnce   sync.Once
	ambientStatus Status
)

// Ambient returns the status this process was started with. It is read from
// the environment on first use and never changes afterwards.
//
// The grant set is inherited by every descendant of the runtime, but only the
// runtime cordon started is bound by the permission engine. A process whose
// parent is not the launching cordon is reported as Unrestricted.
func Ambient() Status {
	ambientOnce.Do(func() {
		if !launchedBy(os.Getenv(grants.LauncherEnvVar), os.Getppid()) {
			ambientStatus = Unrestricted
			return
		}
		ambientStatus = statusFromEnv(os.Getenv(grants.EnvVar))
	})
	return ambientStatus
}

// launchedBy reports whether a process with parent ppid is the one the
// recorded launcher started. An unrecorded launcher is trusted.
func launchedBy(launcher string, ppid int) bool {
	return launcher == "" || launcher == strconv.Itoa(ppid)
}

func statusFromEnv(value string) Status {
	if value == "" {
		return Unrestricted
	}
	set, err := grants.Decode(value)
	if err != nil {
		logging.Logger().Warn("ignoring unreadable grant set; capability queries will pass through", "env", grants.EnvVar, "err", err)
		return Unrestricted
	}
	return Granted(set)
}

type statusKey struct{}

// WithStatus returns a context whose queries are answered by status.
func WithStatus(ctx context.Context, status Status) context.Context {
	return context.WithValue(ctx, statusKey{}, status)
}

// FromContext returns the status attached with WithStatus, or Ambient.
func FromContext(ctx context.Context) Status {
	if status, ok := ctx.Value(statusKey{}).(Status); ok && status != nil {
		return status
	}
	return Ambient()
}

// Query reports whether scope is currently permitted for reference.
func Query(ctx context.Context, scope Scope, reference string) bool {
	return FromContext(ctx).Has(scope, reference)
}

// Guard runs op when scope is permitted for reference and returns its result
// and error unchanged. When denied, it logs a warning and returns fallback
// without calling op.
func Guard[T any](ctx context.Context, scope Scope, reference string, op func(context.Context) (T, error), fallback T) (T, error) {
	if !Query(ctx, scope, reference) {
		logging.Logger().Warn("capability denied", "scope", string(scope), "reference", reference)
		return fallback, nil
	}
	return op(ctx)
}
