package service

import (
	"context"
	"learnhub_backend/internal/util"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestAdminCannotLockThemselvesOut(t *testing.T) {
	svc := NewUserService(nil)
	admin := Identity{UserID: 1, Role: "admin"}
	ctx := context.Background()

	_, err := svc.UpdateUser(ctx, admin, 1, UpdateUserRequest{Name: "root", Email: "root@example.com", Role: "student"})
	assert.True(t, errors.Is(err, util.ErrPermissionDenied))

	_, err = svc.UpdateUser(ctx, admin, 1, UpdateUserRequest{Name: "root", Email: "root@example.com", Role: "admin", Disabled: true})
	assert.True(t, errors.Is(err, util.ErrPermissionDenied))

	assert.True(t, errors.Is(svc.DisableUser(ctx, admin, 1, true), util.ErrPermissionDenied))
	assert.True(t, errors.Is(svc.DeleteUser(ctx, admin, 1), util.ErrPermissionDenied))
}
