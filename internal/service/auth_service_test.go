package service

import (
	"context"
	"encoding/json"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccounts struct {
	byEmail map[string]*model.User
	nextID  uint
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*model.User{}}
}

func (f *fakeAccounts) Create(ctx context.Context, user *model.User) error {
	f.nextID++
	user.ID = f.nextID
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeAccounts) GetUser(ctx context.Context, id uint) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.Wrap(util.ErrNotFound, "user")
}

func (f *fakeAccounts) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.Wrap(util.ErrNotFound, "user")
}

func (f *fakeAccounts) UpdateLastLogin(ctx context.Context, userID uint) error { return nil }

func testAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	return cfg
}

func TestRegisterIgnoresRequestedRole(t *testing.T) {
	accounts := newFakeAccounts()
	svc := NewAuthService(accounts, testAuthConfig())

	var req RegisterRequest
	body := `{"name":"Mallory","email":"Mallory@Example.com","password":"hunter22!","role":"admin"}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.Student, user.Role)
	assert.Equal(t, "mallory@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("hunter22!")))

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "mallory@example.com", Password: "hunter22!"})
	require.NoError(t, err)
	claims, err := util.ParseJWT(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, model.Student, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newFakeAccounts(), testAuthConfig())
	req := RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password1"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), req)
	assert.True(t, errors.Is(err, util.ErrEmailRegistered))
}

func TestEnsureAdmin(t *testing.T) {
	accounts := newFakeAccounts()
	svc := NewAuthService(accounts, testAuthConfig())
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, config.AdminConfig{}))
	assert.Empty(t, accounts.byEmail)

	seed := config.AdminConfig{Email: "Root@Example.com", Password: "rootpass1"}
	require.NoError(t, svc.EnsureAdmin(ctx, seed))
	admin, err := accounts.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.Admin, admin.Role)
	assert.Equal(t, "Administrator", admin.Name)

	// 再次启动不重复创建
	require.NoError(t, svc.EnsureAdmin(ctx, seed))
	assert.Len(t, accounts.byEmail, 1)
}

func TestEnsureAdminLeavesExistingAccount(t *testing.T) {
	accounts := newFakeAccounts()
	svc := NewAuthService(accounts, testAuthConfig())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureAdmin(ctx, config.AdminConfig{Email: "ada@example.com", Password: "rootpass1"}))
	ada, _ := accounts.FindByEmail(ctx, "ada@example.com")
	assert.Equal(t, model.Student, ada.Role)
}
