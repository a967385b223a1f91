package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// AdminCartUsecase は管理者が任意ユーザーのカートを見る・明細を消す。
type AdminCartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	tx           repo.TransactionManager
}

func NewAdminCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
) *AdminCartUsecase {
	return &AdminCartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		tx:           tx,
	}
}

func (u *AdminCartUsecase) ListLines(ctx context.Context, adminUserID, userID string) (CartResponse, error) {
	if err := requireUser(adminUserID); err != nil {
		return CartResponse{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return buildCartResponse(ctx, u.cartItemRepo, u.productRepo, userID)
}

// RemoveLine は明細の削除と監査ログを同じトランザクションで書く。
func (u *AdminCartUsecase) RemoveLine(ctx context.Context, adminUserID, userID, productID string) error {
	if err := requireUser(adminUserID); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(productID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.CartItems().Find(ctx, userID, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}

		if err := r.CartItems().Delete(ctx, userID, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return err
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionDeleteCartItem,
			ResourceType: model.AuditResourceCartItem,
			ResourceID:   userID + "/" + productID,
			BeforeJSON:   toJSON(item),
			CreatedAt:    time.Now(),
		})
	})
	return passthrough(err)
}
