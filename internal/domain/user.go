package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AdminUser struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // argon2id
	Role         string // "admin"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *AdminUser) error
	GetByEmail(ctx context.Context, email string) (*AdminUser, error)
}
