//go:build !windows

package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// shortSocketPath keeps the path under the sun_path limit on every platform.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "hostid")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func startServer(t *testing.T, src Source) (string, context.CancelFunc, <-chan error) {
	t.Helper()
	socketPath := shortSocketPath(t)

	srv, err := NewServer(socketPath, src, nil)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()
	return socketPath, cancel, done
}

func waitServe(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}

func TestServer_Query(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &fakeSource{hostID: "007f0100"}
	socketPath, cancel, done := startServer(t, src)

	ctx, cancelQuery := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelQuery()

	tests := []struct {
		method     string
		wantStatus string
		wantHostID string
		wantReport bool
	}{
		{MethodHealth, "ok", "", false},
		{MethodGetHostID, "ok", "007f0100", false},
		{MethodGetReport, "ok", "007f0100", true},
		{"bad_method", "error", "", false},
	}

	for _, tc := range tests {
		resp, err := Query(ctx, socketPath, tc.method)
		require.NoError(t, err, tc.method)
		assert.Equal(t, tc.wantStatus, resp.Status, tc.method)
		assert.Equal(t, tc.wantHostID, resp.HostID, tc.method)
		assert.Equal(t, tc.wantReport, resp.Report != nil, tc.method)
	}

	cancel()
	waitServe(t, done)
}

func TestServer_MalformedRequestKeepsConnection(t *testing.T) {
	defer goleak.VerifyNone(t)

	socketPath, cancel, done := startServer(t, &fakeSource{hostID: "a1c0a8"})

	conn, err := dialSocket(socketPath)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	scanner := bufio.NewScanner(conn)
	recv := func() Response {
		require.True(t, scanner.Scan(), "expected a response line")
		var resp Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		return resp
	}

	_, err = conn.Write([]byte("{not json\n"))
	require.NoError(t, err)
	resp := recv()
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "malformed request", resp.Error)

	_, err = conn.Write([]byte(`{"method":"get_host_id"}` + "\n"))
	require.NoError(t, err)
	resp = recv()
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "a1c0a8", resp.HostID)

	cancel()
	waitServe(t, done)
}

func TestServer_CloseRemovesSocket(t *testing.T) {
	socketPath := shortSocketPath(t)
	srv, err := NewServer(socketPath, &fakeSource{}, nil)
	require.NoError(t, err)

	_, err = os.Stat(socketPath)
	require.NoError(t, err)

	require.NoError(t, srv.Close())
	_, err = os.Stat(socketPath)
	assert.True(t, os.IsNotExist(err))
}
