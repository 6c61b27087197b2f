package tarantool_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tnt "github.com/tarantool/go-tarantool/v2"
	"github.com/tarantool/go-tarantool/v2/pool"

	"github.com/tarantool/go-tablestore/driver/tarantool"
	"github.com/tarantool/go-tablestore/internal/tabletest"
	"github.com/tarantool/go-tablestore/table"
)

// connect returns a connection to the instances of TARANTOOL_ADDR.
// It skips the test if no Tarantool instance is available.
func connect(ctx context.Context, t *testing.T) tnt.Doer {
	t.Helper()

	addr := os.Getenv("TARANTOOL_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("Skipping test: TARANTOOL_ADDR environment variable not set")
	}

	addrs := strings.Split(addr, ",")

	instances := make([]pool.Instance, 0, len(addrs))
	for i, a := range addrs {
		instances = append(instances, pool.Instance{
			Name: string(rune('a' + i)),
			Dialer: &tnt.NetDialer{ //nolint:exhaustruct
				Address:  strings.TrimSpace(a),
				User:     "client",
				Password: "secret",
			},
			Opts: tnt.Opts{Timeout: 5 * time.Second}, //nolint:exhaustruct
		})
	}

	conn, err := pool.Connect(ctx, instances)
	require.NoError(t, err, "Failed to connect to Tarantool pool")

	t.Cleanup(func() { _ = conn.Close() })

	return pool.NewConnectorAdapter(conn, pool.RW)
}

func TestIntegration_Conformance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	doer := connect(ctx, t)

	require.NoError(t, tarantool.Setup(ctx, doer))

	store, err := tarantool.New(doer, tarantool.WithChunkSize(3))
	require.NoError(t, err)

	tabletest.Run(t, func(_ *testing.T) table.Store {
		return store
	})
}
