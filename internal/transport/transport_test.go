//go:build unix

package transport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gutierrez-fleet/dispatchd/internal/wire"
)

func TestInboundRunDecodesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server_pipe")
	in := NewInbound(path, 4)
	require.NoError(t, in.Open())
	defer in.Close()
	defer in.Unlink()

	go in.Run()

	writer, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer writer.Close()

	req := wire.Request{ClientPID: 42, ClientName: "ana", Type: wire.Login}
	b, err := wire.EncodeRequest(req)
	require.NoError(t, err)
	_, err = writer.Write(b)
	require.NoError(t, err)

	select {
	case got := <-in.Requests:
		require.Equal(t, req.ClientPID, got.ClientPID)
		require.Equal(t, req.ClientName, got.ClientName)
		require.Equal(t, req.Type, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for decoded request")
	}
}

func TestReplySenderSendMissingClientDoesNotPanic(t *testing.T) {
	// No endpoint exists for this pid's path; Send must log and return,
	// never panic or block.
	ReplySender{}.Send(999999, wire.Reply{Success: true, Message: "hi"})
}
