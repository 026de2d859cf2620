package ports

import (
	"context"

	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
