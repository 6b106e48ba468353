package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"negoshop/internal/domain"
	"negoshop/internal/security"
	"negoshop/internal/service"
)

func newAuthService(users *MockUserRepo, shops *MockShopRepo) *service.AuthService {
	tokenSvc := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4) // low cost for tests
	return service.NewAuthService(users, shops, tokenSvc, hasher)
}

func TestRegisterClient(t *testing.T) {
	users := new(MockUserRepo)
	shops := new(MockShopRepo)
	svc := newAuthService(users, shops)

	users.On("GetByUsername", mock.Anything, "awa").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "awa" && u.Role == domain.RoleClient && u.IsActive
	})).Return(nil)

	user, err := svc.Register(context.Background(), service.RegisterInput{
		Username: "awa",
		Password: "secret123",
		Role:     domain.RoleClient,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	shops.AssertNotCalled(t, "Create")
}

func TestRegisterMerchantCreatesShop(t *testing.T) {
	users := new(MockUserRepo)
	shops := new(MockShopRepo)
	svc := newAuthService(users, shops)

	users.On("GetByUsername", mock.Anything, "moussa").Return(nil, nil)
	users.On("Create", mock.Anything, mock.Anything).Return(nil)
	shops.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.Shop) bool {
		return s.MerchantID == 99 && s.Name == "Maroquinerie Moussa"
	})).Return(nil)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Username: "moussa",
		Password: "secret123",
		Role:     domain.RoleMerchant,
		ShopName: "Maroquinerie Moussa",
	})
	assert.NoError(t, err)
	shops.AssertExpectations(t)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	users := new(MockUserRepo)
	svc := newAuthService(users, new(MockShopRepo))

	users.On("GetByUsername", mock.Anything, "awa").Return(&domain.User{ID: 1, Username: "awa"}, nil)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Username: "awa", Password: "secret123", Role: domain.RoleClient,
	})
	assert.Error(t, err)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(new(MockUserRepo), new(MockShopRepo))

	_, err := svc.Register(context.Background(), service.RegisterInput{
		Username: "awa", Password: "secret123", Role: "admin",
	})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	users := new(MockUserRepo)
	svc := newAuthService(users, new(MockShopRepo))

	hasher := security.NewPasswordHasher(4)
	hashed, err := hasher.Hash("secret123")
	assert.NoError(t, err)

	users.On("GetByUsername", mock.Anything, "awa").Return(&domain.User{
		ID: 1, Username: "awa", HashedPassword: hashed, Role: domain.RoleClient, IsActive: true,
	}, nil)

	resp, err := svc.Login(context.Background(), service.LoginInput{Username: "awa", Password: "secret123"})
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)

	_, err = svc.Login(context.Background(), service.LoginInput{Username: "awa", Password: "wrong"})
	assert.Error(t, err)
}
