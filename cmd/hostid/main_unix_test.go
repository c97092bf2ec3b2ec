//go:build !windows

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusharlock10/hostid/internal/ipc"
)

func TestServeAndQuery(t *testing.T) {
	root := newRoot(t, map[string][]byte{"etc/hostid": {0xa8, 0xc0, 0x01, 0x0a}})

	dir, err := os.MkdirTemp("", "hostid")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	socket := filepath.Join(dir, "s.sock")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"serve", "--root", root, "--socket", socket, "--log-level", "silent"})
		serveDone <- cmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		resp, err := ipc.Query(ctx, socket, ipc.MethodHealth)
		return err == nil && resp.Status == "ok"
	}, 2*time.Second, 20*time.Millisecond)

	out, _, err := execute(t, "query", "--socket", socket)
	require.NoError(t, err)
	assert.Equal(t, "a1c0a8\n", out)

	out, _, err = execute(t, "query", "get_report", "--socket", socket)
	require.NoError(t, err)
	assert.Contains(t, out, `"source": "file"`)

	_, stderr, err := execute(t, "query", "bogus", "--socket", socket)
	assert.Error(t, err)
	assert.Contains(t, stderr, "unknown method: bogus")

	cancel()
	select {
	case err := <-serveDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
