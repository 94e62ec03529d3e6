package ports

import (
	"context"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// RegisterInput carries the fields accepted when creating an account.
type RegisterInput struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
	Role        string
	Tier        string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
