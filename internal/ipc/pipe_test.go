//go:build unix

package ipc

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAndRemoveFIFO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_pipe")
	require.NoError(t, EnsureFIFO(path))
	require.NoError(t, EnsureFIFO(path)) // idempotent, EEXIST swallowed

	require.NoError(t, RemoveFIFO(path))
	require.NoError(t, RemoveFIFO(path)) // idempotent, ENOENT swallowed
}

func TestRecreateFIFOResetsEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veic_1")
	require.NoError(t, EnsureFIFO(path))
	require.NoError(t, RecreateFIFO(path))
	defer RemoveFIFO(path)

	reader, err := OpenReadNonblock(path)
	require.NoError(t, err)
	defer reader.Close()

	writer, err := OpenWriteOnly(path)
	require.NoError(t, err)
	defer writer.Close()

	_, err = writer.WriteString("COMPLETED|1|1|5.0\n")
	require.NoError(t, err)

	buf := make([]byte, 256)
	var n int
	for i := 0; i < 50; i++ {
		n, err = ReadNonblock(reader, buf)
		require.NoError(t, err)
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, "COMPLETED|1|1|5.0\n", string(buf[:n]))
}

func TestOpenReadNonblockMissingPathErrors(t *testing.T) {
	_, err := OpenReadNonblock(filepath.Join(t.TempDir(), "does_not_exist"))
	assert.Error(t, err)
}
