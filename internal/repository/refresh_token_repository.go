package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・取得
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	DeleteAllByUserID(ctx context.Context, userID int64) error
}
