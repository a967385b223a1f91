package usecase

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memrepo"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditLogs(t *testing.T, store *memrepo.Store) []model.AuditLog {
	t.Helper()
	logs, err := store.AuditLogs().List(context.Background(), repo.AuditLogFilter{})
	require.NoError(t, err)
	return logs
}

func TestProductUsecase_AdminDelete_WritesAudit(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()
	uc := NewProductUsecase(store.Products(), store)

	p, err := uc.AdminCreateProduct(ctx, "admin", AdminCreateProductInput{
		Name: "Mug", Price: decimal.RequireFromString("8"), Stock: 2, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "8.00", p.Price)

	require.NoError(t, uc.AdminDeleteProduct(ctx, "admin", p.ID))

	_, err = uc.GetProductDetail(ctx, p.ID)
	assertHTTPStatus(t, err, http.StatusNotFound)

	logs := auditLogs(t, store)
	require.Len(t, logs, 2)
	assert.Equal(t, model.AuditActionDeleteProduct, logs[0].Action)
	assert.Equal(t, p.ID, logs[0].ResourceID)
	assert.Equal(t, "admin", logs[0].ActorUserID)
	assert.Contains(t, logs[0].BeforeJSON, `"name":"Mug"`)
}

func TestProductUsecase_AdminDelete_Missing(t *testing.T) {
	store := memrepo.New()
	uc := NewProductUsecase(store.Products(), store)

	err := uc.AdminDeleteProduct(context.Background(), "admin", "nope")
	assertHTTPStatus(t, err, http.StatusNotFound)
	assert.Empty(t, auditLogs(t, store))
}

func TestProductUsecase_AdminList_SortedByCreation(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()
	uc := NewProductUsecase(store.Products(), store)

	for _, name := range []string{"first", "second", "third"} {
		_, err := uc.AdminCreateProduct(ctx, "admin", AdminCreateProductInput{Name: name, Price: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	out, err := uc.AdminListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, out.Items, 3)
	for i := 1; i < len(out.Items); i++ {
		assert.False(t, out.Items[i].CreatedAt.Before(out.Items[i-1].CreatedAt))
	}
}

func TestAdminCartUsecase_RemoveLine(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()
	_, err := store.CartItems().Create(ctx, model.CartItem{UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	uc := NewAdminCartUsecase(store.CartItems(), store.Products(), store)
	require.NoError(t, uc.RemoveLine(ctx, "admin", "u1", "p1"))

	out, err := uc.ListLines(ctx, "admin", "u1")
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, "0.00", out.Total)

	logs := auditLogs(t, store)
	require.Len(t, logs, 1)
	assert.Equal(t, "u1/p1", logs[0].ResourceID)

	err = uc.RemoveLine(ctx, "admin", "u1", "p1")
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestSiteConfigUsecase_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()
	uc := NewSiteConfigUsecase(store.SiteSettings(), store)

	out, err := uc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, SiteConfigResponse{SiteName: model.DefaultSiteName}, out)

	require.NoError(t, uc.Set(ctx, "admin", model.SiteSettingLogoURL, "https://cdn.test/logo.png"))
	require.NoError(t, uc.Set(ctx, "admin", model.SiteSettingName, "Tea House"))

	out, err = uc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tea House", out.SiteName)
	require.NotNil(t, out.SiteLogoURL)
	assert.Equal(t, "https://cdn.test/logo.png", *out.SiteLogoURL)

	require.NoError(t, uc.Set(ctx, "admin", model.SiteSettingLogoURL, ""))
	out, err = uc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, out.SiteLogoURL)

	logs := auditLogs(t, store)
	require.Len(t, logs, 3)
	assert.Equal(t, `{"site_logo_url":"https://cdn.test/logo.png"}`, logs[0].BeforeJSON)
}

func TestSiteConfigUsecase_Set_Rejects(t *testing.T) {
	store := memrepo.New()
	uc := NewSiteConfigUsecase(store.SiteSettings(), store)

	assertHTTPStatus(t, uc.Set(context.Background(), "admin", "theme", "dark"), http.StatusBadRequest)
	assertHTTPStatus(t, uc.Set(context.Background(), "admin", model.SiteSettingName, " "), http.StatusBadRequest)
	assertHTTPStatus(t, uc.Set(context.Background(), "", model.SiteSettingName, "x"), http.StatusUnauthorized)
	assert.Empty(t, auditLogs(t, store))
}

func TestAuditLogUsecase_List_Filters(t *testing.T) {
	ctx := context.Background()
	store := memrepo.New()
	products := NewProductUsecase(store.Products(), store)
	audit := NewAuditLogUsecase(store.AuditLogs())

	p, err := products.AdminCreateProduct(ctx, "a1", AdminCreateProductInput{
		Name: "Mug", Price: decimal.RequireFromString("8"), Stock: 2, IsActive: true,
	})
	require.NoError(t, err)
	require.NoError(t, products.AdminDeleteProduct(ctx, "a2", p.ID))

	all, err := audit.List(ctx, "a1", AuditLogQuery{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, model.AuditActionDeleteProduct, all.Items[0].Action)

	byAction, err := audit.List(ctx, "a1", AuditLogQuery{Action: "create_product"})
	require.NoError(t, err)
	require.Len(t, byAction.Items, 1)
	assert.Equal(t, "a1", byAction.Items[0].ActorUserID)

	byActor, err := audit.List(ctx, "a1", AuditLogQuery{ActorUserID: "a2", ResourceType: "PRODUCT"})
	require.NoError(t, err)
	require.Len(t, byActor.Items, 1)
	assert.Equal(t, p.ID, byActor.Items[0].ResourceID)

	paged, err := audit.List(ctx, "a1", AuditLogQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged.Items, 1)
	assert.Equal(t, model.AuditActionCreateProduct, paged.Items[0].Action)

	_, err = audit.List(ctx, "a1", AuditLogQuery{Limit: -1})
	assertHTTPStatus(t, err, http.StatusBadRequest)

	_, err = audit.List(ctx, "", AuditLogQuery{})
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}
