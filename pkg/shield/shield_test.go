package shield

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoclaw-ai/cordon/internal/grants"
	"github.com/neoclaw-ai/cordon/internal/logging"
)

type fixedStatus bool

func (s fixedStatus) Has(Scope, string) bool { return bool(s) }

func TestQuery_UnrestrictedAllowsEverything(t *testing.T) {
	ctx := WithStatus(context.Background(), Unrestricted)

	for _, scope := range []Scope{ScopeFSRead, ScopeFSWrite, ScopeNet, ScopeWorker, ScopeChildProcess, ScopeWASI, ScopeInspector, "unknown"} {
		assert.True(t, Query(ctx, scope, "/tmp"), "scope %s", scope)
		assert.True(t, Query(ctx, scope, ""), "scope %s without reference", scope)
	}
}

func TestQuery_FollowsInjectedStatus(t *testing.T) {
	assert.False(t, Query(WithStatus(context.Background(), fixedStatus(false)), ScopeNet, "external.com"))
	assert.True(t, Query(WithStatus(context.Background(), fixedStatus(true)), ScopeFSWrite, "/tmp"))
}

func TestFromContext_NilStatusFallsBackToAmbient(t *testing.T) {
	ctx := WithStatus(context.Background(), nil)

	assert.Equal(t, Ambient(), FromContext(ctx))
}

func TestGuard_PermittedReturnsResult(t *testing.T) {
	ctx := WithStatus(context.Background(), fixedStatus(true))

	got, err := Guard(ctx, ScopeFSRead, "/allowed", func(context.Context) (string, error) {
		return "success", nil
	}, "blocked")

	require.NoError(t, err)
	assert.Equal(t, "success", got)
}

func TestGuard_DeniedReturnsFallbackWithoutRunning(t *testing.T) {
	ctx := WithStatus(context.Background(), fixedStatus(false))
	called := false

	got, err := Guard(ctx, ScopeNet, "external.com", func(context.Context) (string, error) {
		called = true
		return "success", nil
	}, "blocked")

	require.NoError(t, err)
	assert.Equal(t, "blocked", got)
	assert.False(t, called, "operation must not run after a denial")
}

func TestGuard_DenialLogsScopeAndReference(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	ctx := WithStatus(context.Background(), fixedStatus(false))

	_, err := Guard(ctx, ScopeNet, "external.com", func(context.Context) (string, error) {
		return "success", nil
	}, "blocked")

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "capability denied")
	assert.Contains(t, out, "scope=net")
	assert.Contains(t, out, "reference=external.com")
}

func TestGuard_PermittedDoesNotLog(t *testing.T) {
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	ctx := WithStatus(context.Background(), fixedStatus(true))

	_, err := Guard(ctx, ScopeNet, "api.example.com", func(context.Context) (string, error) {
		return "success", nil
	}, "blocked")

	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestGuard_WaitsForBlockingOperation(t *testing.T) {
	ctx := WithStatus(context.Background(), fixedStatus(true))

	got, err := Guard(ctx, ScopeFSRead, "/allowed", func(ctx context.Context) (int, error) {
		select {
		case <-time.After(10 * time.Millisecond):
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}, 0)

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestGuard_PropagatesOperationError(t *testing.T) {
	ctx := WithStatus(context.Background(), fixedStatus(true))
	failure := errors.New("action failed")

	got, err := Guard(ctx, ScopeFSRead, "/allowed", func(context.Context) (string, error) {
		return "", failure
	}, "blocked")

	require.ErrorIs(t, err, failure)
	assert.Empty(t, got)
}

func TestGuard_PassesContextThrough(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(WithStatus(context.Background(), fixedStatus(true)), key{}, "value")

	got, err := Guard(ctx, ScopeWorker, "", func(ctx context.Context) (any, error) {
		return ctx.Value(key{}), nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestGuard_ConcurrentCallsRunEachOperationOnce(t *testing.T) {
	status := Granted(grants.NewSet(
		grants.Grant{Kind: grants.KindPermission},
		grants.Grant{Kind: grants.KindNet, Value: "api.example.com"},
	))
	ctx := WithStatus(context.Background(), status)
	var runs atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			host := "api.example.com"
			if i%2 == 1 {
				host = "evil.example.com"
			}
			_, err := Guard(ctx, ScopeNet, host, func(context.Context) (bool, error) {
				runs.Add(1)
				return true, nil
			}, false)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(25), runs.Load())
}

func TestLaunchedBy(t *testing.T) {
	assert.True(t, launchedBy("", 4242), "no recorded launcher")
	assert.True(t, launchedBy("4242", 4242), "direct child of the launcher")
	assert.False(t, launchedBy("4242", 9999), "descendant of the runtime")
	assert.False(t, launchedBy("not-a-pid", 4242))
}

func TestStatusFromEnv(t *testing.T) {
	assert.Equal(t, Unrestricted, statusFromEnv(""))
	assert.Equal(t, Unrestricted, statusFromEnv("{broken"))

	withoutSwitch, err := grants.NewSet(grants.Grant{Kind: grants.KindNet, Value: "x.com"}).Encode()
	require.NoError(t, err)
	assert.Equal(t, Unrestricted, statusFromEnv(withoutSwitch))

	enforced, err := grants.NewSet(
		grants.Grant{Kind: grants.KindPermission},
		grants.Grant{Kind: grants.KindNet, Value: "x.com"},
	).Encode()
	require.NoError(t, err)
	status := statusFromEnv(enforced)
	assert.True(t, status.Has(ScopeNet, "x.com"))
	assert.False(t, status.Has(ScopeNet, "y.com"))
	assert.False(t, status.Has(ScopeFSRead, "/etc/passwd"))
}
