package nodeconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodeconfig", "0", "node.yaml")
	want := Config{ChainID: 9, GRPCListen: "0.0.0.0:9000", ConfirmDelay: 250 * time.Millisecond, InitialBalance: 42, CASDir: "/tmp/cas"}

	require.NoError(t, Write(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "confirm-delay: 250ms")
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grpc-listen: 127.0.0.1:1\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	want := Default()
	want.GRPCListen = "127.0.0.1:1"
	require.Equal(t, want, got)
}

func TestLoadRejectsNegativeDelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte("confirm-delay: -1s\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain-id: [\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
