package service

import (
	"context"
	"learnhub_backend/internal/model"
)

// Identity 当前登录学员
type Identity struct {
	UserID      uint
	DisplayName string
	Role        model.UserRole
}

type IdentityProvider interface {
	CurrentUser(ctx context.Context) (Identity, bool)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// ContextIdentityProvider 读取认证中间件写入请求 context 的身份
type ContextIdentityProvider struct{}

func (ContextIdentityProvider) CurrentUser(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}
