package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// FavoriteUsecase は /favorites の業務ロジック。
type FavoriteUsecase struct {
	favoriteRepo repo.FavoriteRepository
	productRepo  repo.ProductRepository
}

func NewFavoriteUsecase(favoriteRepo repo.FavoriteRepository, productRepo repo.ProductRepository) *FavoriteUsecase {
	return &FavoriteUsecase{favoriteRepo: favoriteRepo, productRepo: productRepo}
}

type FavoritesResponse struct {
	ProductIDs []string `json:"product_ids"`
}

func (u *FavoriteUsecase) List(ctx context.Context, userID string) (FavoritesResponse, error) {
	if err := requireUser(userID); err != nil {
		return FavoritesResponse{}, err
	}

	favs, err := u.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return FavoritesResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out := FavoritesResponse{ProductIDs: make([]string, 0, len(favs))}
	for _, f := range favs {
		out.ProductIDs = append(out.ProductIDs, f.ProductID)
	}
	return out, nil
}

// Add は既に登録済みなら409。
func (u *FavoriteUsecase) Add(ctx context.Context, userID, productID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if strings.TrimSpace(productID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	_, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = u.favoriteRepo.Create(ctx, model.Favorite{UserID: userID, ProductID: productID})
	if errors.Is(err, repo.ErrConflict) {
		return NewHTTPError(http.StatusConflict, "already favorited")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *FavoriteUsecase) Remove(ctx context.Context, userID, productID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	err := u.favoriteRepo.Delete(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
