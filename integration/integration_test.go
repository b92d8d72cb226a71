//go:build integration

package integration

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/r2pipe-go"
)

// skipIfEngineNotInstalled skips the test if the error indicates r2 is not found.
func skipIfEngineNotInstalled(t *testing.T, err error) {
	t.Helper()

	if spawnErr, ok := errors.AsType[*r2pipe.SpawnError](err); ok && len(spawnErr.SearchedPaths) > 0 {
		t.Skip("r2 not installed")
	}
}

// testTarget returns a binary present on every Unix test host.
func testTarget(t *testing.T) string {
	t.Helper()

	path, err := exec.LookPath("ls")
	if err != nil {
		t.Skip("no ls binary to analyze")
	}

	return path
}

// openSession opens a real engine on the test target and closes it at test end.
func openSession(t *testing.T, ctx context.Context, opts ...r2pipe.Option) *r2pipe.Session {
	t.Helper()

	s, err := r2pipe.OpenWithEnv(ctx, testTarget(t), nil, opts...)
	if err != nil {
		skipIfEngineNotInstalled(t, err)
		require.NoError(t, err)
	}

	t.Cleanup(func() { _ = s.Close() })

	return s
}
