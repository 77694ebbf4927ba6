package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	log = zap.NewNop().Sugar()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestAddressAndVerify(t *testing.T) {
	out, err := run(t, "address", "test")
	require.NoError(t, err)
	require.Contains(t, out, "v2: k74tq2hsh6")
	require.Contains(t, out, "v1: 9f86d08188")

	out, err = run(t, "verify", "test", "k74tq2hsh6")
	require.NoError(t, err)
	require.Equal(t, "ok", strings.TrimSpace(out))

	_, err = run(t, "verify", "test", address.MakeV2("other"))
	require.Error(t, err)
}

func TestMigrateAndStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	_, err := run(t, "migrate", "--dsn", path)
	require.NoError(t, err)

	out, err := run(t, "stats", "--dsn", path)
	require.NoError(t, err)
	require.Contains(t, out, "blocks")
	require.Contains(t, out, "work")
}
