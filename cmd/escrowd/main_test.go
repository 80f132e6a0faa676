package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/config"
)

func TestEventStoreDSN(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "events.db")
	cases := []struct {
		dsn  string
		want string
	}{
		{dsn: "", want: ""},
		{dsn: "events.db", want: filepath.Join("data", "events.db")},
		{dsn: abs, want: abs},
		{dsn: ":memory:", want: ":memory:"},
		{dsn: "file:events?mode=memory", want: "file:events?mode=memory"},
		{dsn: "postgres://escrow@db/escrow", want: "postgres://escrow@db/escrow"},
		{dsn: "PostgreSQL://escrow@db/escrow", want: "PostgreSQL://escrow@db/escrow"},
	}
	for _, tc := range cases {
		cfg := &config.Config{DataDir: "data", EventStoreDSN: tc.dsn}
		require.Equal(t, tc.want, eventStoreDSN(cfg), tc.dsn)
	}
}
