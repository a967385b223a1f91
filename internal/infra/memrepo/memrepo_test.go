package memrepo

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, err := s.Products().Create(ctx, model.Product{Name: "Mug"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(r repo.TxRepos) error {
		require.NoError(t, r.Products().SoftDelete(ctx, p.ID))
		require.NoError(t, r.AuditLogs().Create(ctx, model.AuditLog{Action: model.AuditActionDeleteProduct}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Products().FindByID(ctx, p.ID)
	assert.NoError(t, err)
	logs, err := s.AuditLogs().List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCartItems_UniquePerUserAndProduct(t *testing.T) {
	ctx := context.Background()
	s := New()
	items := s.CartItems()

	_, err := items.Create(ctx, model.CartItem{UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)
	_, err = items.Create(ctx, model.CartItem{UserID: "u1", ProductID: "p1", Quantity: 2})
	assert.ErrorIs(t, err, repo.ErrConflict)
	_, err = items.Create(ctx, model.CartItem{UserID: "u2", ProductID: "p1", Quantity: 2})
	require.NoError(t, err)

	_, err = items.UpdateQuantity(ctx, "u1", "p9", 3)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, items.DeleteAllByUser(ctx, "u1"))
	left, err := items.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, left, 1)
	mine, err := items.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestProducts_SoftDeleteHidesFromLookups(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, err := s.Products().Create(ctx, model.Product{Name: "A"})
	require.NoError(t, err)
	b, err := s.Products().Create(ctx, model.Product{Name: "B"})
	require.NoError(t, err)

	require.NoError(t, s.Products().SoftDelete(ctx, a.ID))
	assert.ErrorIs(t, s.Products().SoftDelete(ctx, a.ID), repo.ErrNotFound)

	byID, err := s.Products().FindByIDs(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Contains(t, byID, b.ID)

	all, err := s.Products().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "B", all[0].Name)
}

func TestAuditLogs_FilterNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"a", "b", "a"} {
		require.NoError(t, s.AuditLogs().Create(ctx, model.AuditLog{ResourceID: id, Action: model.AuditActionDeleteProduct}))
	}

	id := "a"
	logs, err := s.AuditLogs().List(ctx, repo.AuditLogFilter{ResourceID: &id})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Greater(t, logs[0].ID, logs[1].ID)
}
