package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// カートはユーザーごとに1つで、明細は (user_id, product_id) で一意。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// CartLineResponse はクライアントのCartLineと同じ形。
// unit_price は unit_price_snapshot（追加時点の価格）を返します。
type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	ImageRef  string `json:"image_ref,omitempty"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total string             `json:"total"`
}

type AddCartInput struct {
	ProductID string
	Quantity  int64
}

// GetCart はカート取得（明細が無ければ空）。
func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartResponse, error) {
	if err := requireUser(userID); err != nil {
		return CartResponse{}, err
	}
	return buildCartResponse(ctx, u.cartItemRepo, u.productRepo, userID)
}

// AddLine は明細を新規作成する。既にあれば409。
func (u *CartUsecase) AddLine(ctx context.Context, userID string, in AddCartInput) (CartLineResponse, error) {
	if err := requireUser(userID); err != nil {
		return CartLineResponse{}, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return CartLineResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartLineResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.activeProduct(ctx, in.ProductID)
	if err != nil {
		return CartLineResponse{}, err
	}
	if in.Quantity > p.Stock {
		return CartLineResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	item, err := u.cartItemRepo.Create(ctx, model.CartItem{
		UserID:            userID,
		ProductID:         p.ID,
		Quantity:          in.Quantity,
		UnitPriceSnapshot: p.Price,
	})
	if errors.Is(err, repo.ErrConflict) {
		return CartLineResponse{}, NewHTTPError(http.StatusConflict, "already in cart")
	}
	if err != nil {
		return CartLineResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return lineResponse(item, p), nil
}

// UpdateLine は数量を絶対値で設定する。0なら削除して数量0の明細を返す。
func (u *CartUsecase) UpdateLine(ctx context.Context, userID, productID string, quantity int64) (CartLineResponse, error) {
	if err := requireUser(userID); err != nil {
		return CartLineResponse{}, err
	}
	if quantity < 0 {
		return CartLineResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	if quantity == 0 {
		if err := u.RemoveLine(ctx, userID, productID); err != nil {
			return CartLineResponse{}, err
		}
		return CartLineResponse{ProductID: productID, Quantity: 0, UnitPrice: money(decimal.Zero)}, nil
	}

	p, err := u.activeProduct(ctx, productID)
	if err != nil {
		return CartLineResponse{}, err
	}
	if quantity > p.Stock {
		return CartLineResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	item, err := u.cartItemRepo.UpdateQuantity(ctx, userID, productID, quantity)
	if errors.Is(err, repo.ErrNotFound) {
		return CartLineResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartLineResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return lineResponse(item, p), nil
}

func (u *CartUsecase) RemoveLine(ctx context.Context, userID, productID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	err := u.cartItemRepo.Delete(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *CartUsecase) Clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := u.cartItemRepo.DeleteAllByUser(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 商品チェック（公開のみ）。無い・非公開は400。
func (u *CartUsecase) activeProduct(ctx context.Context, productID string) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	return p, nil
}

func lineResponse(item model.CartItem, p model.Product) CartLineResponse {
	return CartLineResponse{
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Name:      p.Name,
		UnitPrice: money(item.UnitPriceSnapshot),
		ImageRef:  p.ImageRef,
	}
}

// 明細と表示用の商品情報をまとめる。商品が削除済みでも明細は残す（名前は空）。
func buildCartResponse(ctx context.Context, items repo.CartItemRepository, products repo.ProductRepository, userID string) (CartResponse, error) {
	list, err := items.ListByUser(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ids := make([]string, 0, len(list))
	for _, it := range list {
		ids = append(ids, it.ProductID)
	}
	byID, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := CartResponse{Items: make([]CartLineResponse, 0, len(list))}
	total := decimal.Zero
	for _, it := range list {
		out.Items = append(out.Items, lineResponse(it, byID[it.ProductID]))
		total = total.Add(it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)))
	}
	out.Total = money(total)
	return out, nil
}
