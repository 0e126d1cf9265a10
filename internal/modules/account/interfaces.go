package account

import (
	"context"

	"accountsvc/internal/domain"
)

// UserRepositoryInterface covers only the methods the account service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *domain.User) error
	MarkEmailVerified(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]domain.User, error)
}
