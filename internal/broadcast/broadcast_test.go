package broadcast

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/infra/sqlite"
)

func TestBus_TopicFilter(t *testing.T) {
	var b Bus
	var all, cfg []Event

	b.On("", func(ev Event) { all = append(all, ev) })
	off := b.On(TopicSiteConfig, func(ev Event) { cfg = append(cfg, ev) })

	b.Emit(Event{Topic: TopicSiteConfig, Key: "site_logo_url"})
	b.Emit(Event{Topic: TopicCart})

	assert.Len(t, all, 2)
	assert.Equal(t, []Event{{Topic: TopicSiteConfig, Key: "site_logo_url"}}, cfg)

	off()
	b.Emit(Event{Topic: TopicSiteConfig})
	assert.Len(t, cfg, 1)
}

func TestHub_NotDeliveredToSender(t *testing.T) {
	hub := NewHub()
	a := hub.Join("a")
	b := hub.Join("b")

	var gotA, gotB []Message
	a.Subscribe(func(m Message) { gotA = append(gotA, m) })
	b.Subscribe(func(m Message) { gotB = append(gotB, m) })

	require.NoError(t, a.Post(context.Background(), Message{Topic: TopicSiteConfig, Key: "site_name"}))

	assert.Empty(t, gotA)
	require.Len(t, gotB, 1)
	assert.Equal(t, "a", gotB[0].Origin)
	assert.Equal(t, "site_name", gotB[0].Key)
	assert.False(t, gotB[0].SentAt.IsZero())
}

func TestSQLiteChannel_PostAndPoll(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	dbA, err := sqlite.Open(path)
	require.NoError(t, err)
	defer dbA.Close()
	dbB, err := sqlite.Open(path)
	require.NoError(t, err)
	defer dbB.Close()

	a := NewSQLiteChannel(dbA, "a", nil)
	b := NewSQLiteChannel(dbB, "b", nil)

	var gotA, gotB []Message
	a.Subscribe(func(m Message) { gotA = append(gotA, m) })
	b.Subscribe(func(m Message) { gotB = append(gotB, m) })

	require.NoError(t, a.Post(ctx, Message{Topic: TopicSiteConfig, Key: "site_logo_url"}))

	a.Poll(ctx)
	b.Poll(ctx)
	assert.Empty(t, gotA)
	require.Len(t, gotB, 1)
	assert.Equal(t, TopicSiteConfig, gotB[0].Topic)
	assert.Equal(t, "a", gotB[0].Origin)

	// 既読は再配信しない
	b.Poll(ctx)
	assert.Len(t, gotB, 1)
}

func TestSQLiteChannel_SkipsHistoryAndPrunes(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	defer db.Close()

	old := NewSQLiteChannel(db, "old", nil)
	require.NoError(t, old.Post(ctx, Message{Topic: TopicCart, SentAt: time.Now().Add(-2 * time.Minute)}))

	late := NewSQLiteChannel(db, "late", nil)
	var got []Message
	late.Subscribe(func(m Message) { got = append(got, m) })
	late.Poll(ctx)
	assert.Empty(t, got)

	late.Prune(ctx)
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM broadcast`).Scan(&n))
	assert.Equal(t, 0, n)
}
