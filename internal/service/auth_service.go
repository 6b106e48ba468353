package service

import (
	"context"
	"errors"
	"fmt"

	"negoshop/internal/domain"
	"negoshop/internal/security"
)

// AuthService handles registration and login.
type AuthService struct {
	users  domain.UserRepository
	shops  domain.ShopRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, shops domain.ShopRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		shops:  shops,
		tokens: tokens,
		hash:   hash,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Role     domain.UserRole
	ShopName string // merchants only
}

type LoginInput struct {
	Username string
	Password string
}

type TokenResponse struct {
	AccessToken string
	TokenType   string
	User        *domain.User
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, errors.New("username and password are required")
	}
	if in.Role != domain.RoleMerchant && in.Role != domain.RoleClient {
		return nil, errors.New("role must be 'merchant' or 'client'")
	}

	if existing, err := s.users.GetByUsername(ctx, in.Username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if existing != nil {
		return nil, errors.New("username already registered")
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       in.Username,
		HashedPassword: hashed,
		Role:           in.Role,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// Merchants get their storefront on registration.
	if in.Role == domain.RoleMerchant {
		name := in.ShopName
		if name == "" {
			name = fmt.Sprintf("Boutique de %s", in.Username)
		}
		shop := &domain.Shop{MerchantID: user.ID, Name: name}
		if err := s.shops.Create(ctx, shop); err != nil {
			return nil, fmt.Errorf("create shop: %w", err)
		}
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errors.New("incorrect username or password")
	}
	if !user.IsActive {
		return nil, errors.New("user account is inactive")
	}
	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, errors.New("incorrect username or password")
	}

	token, err := s.tokens.CreateForUser(user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
