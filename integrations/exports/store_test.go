package exports

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/core/events"
	"escrowchain/core/types"
)

type payloadEvent struct{ evt *types.Event }

func (p payloadEvent) EventType() string { return p.evt.Type }
func (p payloadEvent) Event() *types.Event { return p.evt }

type bareEvent string

func (b bareEvent) EventType() string { return string(b) }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func emit(store *Store, eventType, program string, extra map[string]string) {
	attrs := map[string]string{"program": program}
	for k, v := range extra {
		attrs[k] = v
	}
	store.Emit(payloadEvent{evt: &types.Event{Type: eventType, Attributes: attrs}})
}

func TestStoreEmitAndList(t *testing.T) {
	store := openTestStore(t)
	var _ events.Emitter = store

	emit(store, "crowdfund.deposited", "fund", map[string]string{"amount": "10"})
	emit(store, "auction.bid", "house", map[string]string{"amount": "5"})
	emit(store, "crowdfund.withdrawn", "fund", nil)
	store.Emit(bareEvent("ignored"))
	store.Emit(payloadEvent{evt: &types.Event{Type: "registry.minted", Attributes: map[string]string{"registry": "art"}}})

	ctx := context.Background()
	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "crowdfund.deposited", all[0].Type)
	require.Equal(t, "art", all[3].Program)

	evt, err := all[0].Event()
	require.NoError(t, err)
	require.Equal(t, "10", evt.Attributes["amount"])

	fund, err := store.List(ctx, Filter{Program: "fund"})
	require.NoError(t, err)
	require.Len(t, fund, 2)

	bids, err := store.List(ctx, Filter{Type: "auction.bid"})
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, "house", bids[0].Program)

	page, err := store.List(ctx, Filter{AfterID: all[1].ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, all[2].ID, page[0].ID)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := Open(path)
	require.NoError(t, err)
	emit(store, "storefront.sold", "shop", nil)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	records, err := reopened.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "storefront.sold", records[0].Type)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
	require.True(t, isPostgres("postgres://user@localhost/db"))
	require.True(t, isPostgres("POSTGRESQL://host/db"))
	require.False(t, isPostgres("events.db"))
}

func TestDumps(t *testing.T) {
	store := openTestStore(t)
	emit(store, "auction.settled", "house", map[string]string{"winner": "esc1abc", "amount": "7"})
	records, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)

	data, checksum, err := EventsCSV(records)
	require.NoError(t, err)
	require.Len(t, checksum, 64)
	output := string(data)
	require.True(t, strings.HasPrefix(output, "id,type,program,attributes,created_at\n"))
	require.Contains(t, output, "amount=7;program=house;winner=esc1abc")

	lines, sum, err := EventsJSONL(records)
	require.NoError(t, err)
	require.NotEqual(t, checksum, sum)
	require.Contains(t, string(lines), `"type":"auction.settled"`)
	require.Contains(t, string(lines), `"winner":"esc1abc"`)
}
