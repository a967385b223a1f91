// Package memrepo はrepositoryの各インターフェースをメモリ上で実装する。
// STORE_BACKEND=memory での起動とハンドラのテストで使う。
package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type state struct {
	products  map[string]model.Product
	deleted   map[string]bool
	cartItems []model.CartItem
	favorites []model.Favorite
	settings  map[string]model.SiteSetting
	auditLogs []model.AuditLog
	nextID    int64
}

func (s *state) clone() *state {
	c := &state{
		products:  make(map[string]model.Product, len(s.products)),
		deleted:   make(map[string]bool, len(s.deleted)),
		cartItems: append([]model.CartItem(nil), s.cartItems...),
		favorites: append([]model.Favorite(nil), s.favorites...),
		settings:  make(map[string]model.SiteSetting, len(s.settings)),
		auditLogs: append([]model.AuditLog(nil), s.auditLogs...),
		nextID:    s.nextID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.deleted {
		c.deleted[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

// Store は全テーブル分の状態を持つ。
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state
	now  func() time.Time
}

var _ repo.TransactionManager = (*Store)(nil)

func New() *Store {
	return &Store{
		st: &state{
			products: map[string]model.Product{},
			deleted:  map[string]bool{},
			settings: map[string]model.SiteSetting{},
		},
		now: time.Now,
	}
}

func (s *Store) Products() repo.ProductRepository         { return productRepo{s} }
func (s *Store) CartItems() repo.CartItemRepository       { return cartItemRepo{s} }
func (s *Store) Favorites() repo.FavoriteRepository       { return favoriteRepo{s} }
func (s *Store) SiteSettings() repo.SiteSettingRepository { return siteSettingRepo{s} }
func (s *Store) AuditLogs() repo.AuditLogRepository       { return auditLogRepo{s} }

// WithinTx はfnがエラーを返したら状態を開始前に戻す。
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.mu.Unlock()
		return err
	}
	return ctx.Err()
}

func (s *Store) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

type productRepo struct{ s *Store }

func (r productRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]model.Product, 0, len(r.s.st.products))
	for id, p := range r.s.st.products {
		if r.s.st.deleted[id] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r productRepo) FindByID(ctx context.Context, id string) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.st.products[id]
	if !ok || r.s.st.deleted[id] {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r productRepo) FindByIDs(ctx context.Context, ids []string) (map[string]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[string]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.st.products[id]; ok && !r.s.st.deleted[id] {
			out[id] = p
		}
	}
	return out, nil
}

func (r productRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.s.st.products[p.ID]; ok {
		return model.Product{}, repo.ErrConflict
	}
	now := r.s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.s.st.products[p.ID] = p
	return p, nil
}

func (r productRepo) SoftDelete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.products[id]; !ok || r.s.st.deleted[id] {
		return repo.ErrNotFound
	}
	r.s.st.deleted[id] = true
	return nil
}

type cartItemRepo struct{ s *Store }

func (r cartItemRepo) ListByUser(ctx context.Context, userID string) ([]model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.CartItem{}
	for _, it := range r.s.st.cartItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r cartItemRepo) index(userID, productID string) int {
	for i, it := range r.s.st.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (r cartItemRepo) Find(ctx context.Context, userID, productID string) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.index(userID, productID)
	if i < 0 {
		return model.CartItem{}, repo.ErrNotFound
	}
	return r.s.st.cartItems[i], nil
}

func (r cartItemRepo) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.index(item.UserID, item.ProductID) >= 0 {
		return model.CartItem{}, repo.ErrConflict
	}
	now := r.s.now()
	item.ID = r.s.id()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.s.st.cartItems = append(r.s.st.cartItems, item)
	return item, nil
}

func (r cartItemRepo) UpdateQuantity(ctx context.Context, userID, productID string, quantity int64) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.index(userID, productID)
	if i < 0 {
		return model.CartItem{}, repo.ErrNotFound
	}
	r.s.st.cartItems[i].Quantity = quantity
	r.s.st.cartItems[i].UpdatedAt = r.s.now()
	return r.s.st.cartItems[i], nil
}

func (r cartItemRepo) Delete(ctx context.Context, userID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.index(userID, productID)
	if i < 0 {
		return repo.ErrNotFound
	}
	r.s.st.cartItems = append(r.s.st.cartItems[:i:i], r.s.st.cartItems[i+1:]...)
	return nil
}

func (r cartItemRepo) DeleteAllByUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.st.cartItems[:0:0]
	for _, it := range r.s.st.cartItems {
		if it.UserID != userID {
			kept = append(kept, it)
		}
	}
	r.s.st.cartItems = kept
	return nil
}

type favoriteRepo struct{ s *Store }

func (r favoriteRepo) ListByUser(ctx context.Context, userID string) ([]model.Favorite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.Favorite{}
	for _, f := range r.s.st.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r favoriteRepo) Create(ctx context.Context, f model.Favorite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, x := range r.s.st.favorites {
		if x.UserID == f.UserID && x.ProductID == f.ProductID {
			return repo.ErrConflict
		}
	}
	f.ID = r.s.id()
	f.CreatedAt = r.s.now()
	r.s.st.favorites = append(r.s.st.favorites, f)
	return nil
}

func (r favoriteRepo) Delete(ctx context.Context, userID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, x := range r.s.st.favorites {
		if x.UserID == userID && x.ProductID == productID {
			r.s.st.favorites = append(r.s.st.favorites[:i:i], r.s.st.favorites[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

type siteSettingRepo struct{ s *Store }

func (r siteSettingRepo) List(ctx context.Context) ([]model.SiteSetting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]model.SiteSetting, 0, len(r.s.st.settings))
	for _, v := range r.s.st.settings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r siteSettingRepo) Find(ctx context.Context, key string) (model.SiteSetting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.st.settings[key]
	if !ok {
		return model.SiteSetting{}, repo.ErrNotFound
	}
	return v, nil
}

func (r siteSettingRepo) Upsert(ctx context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.st.settings[key] = model.SiteSetting{Key: key, Value: value, UpdatedAt: r.s.now()}
	return nil
}

type auditLogRepo struct{ s *Store }

func (r auditLogRepo) Create(ctx context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	log.ID = r.s.id()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.s.now()
	}
	r.s.st.auditLogs = append(r.s.st.auditLogs, log)
	return nil
}

// List は新しい順。Limit/Offset以外の条件も gorm 実装と同じに解釈する。
func (r auditLogRepo) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.AuditLog{}
	for i := len(r.s.st.auditLogs) - 1; i >= 0; i-- {
		l := r.s.st.auditLogs[i]
		if filter.ActorUserID != nil && l.ActorUserID != *filter.ActorUserID {
			continue
		}
		if filter.Action != nil && l.Action != *filter.Action {
			continue
		}
		if filter.ResourceType != nil && l.ResourceType != *filter.ResourceType {
			continue
		}
		if filter.ResourceID != nil && l.ResourceID != *filter.ResourceID {
			continue
		}
		if filter.CreatedFrom != nil && l.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && l.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, l)
	}

	limit, offset := filter.Page()
	if offset >= len(out) {
		return []model.AuditLog{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
