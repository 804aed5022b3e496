package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/taskboard/internal/model"
)

type UserStore struct{ mock.Mock }

func (m *UserStore) Create(ctx context.Context, email, passwordHash string, role model.Role) (uint64, error) {
	args := m.Called(ctx, email, passwordHash, role)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	var u *model.User
	if v := args.Get(0); v != nil {
		u = v.(*model.User)
	}
	return u, args.Error(1)
}

func (m *UserStore) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	args := m.Called(ctx, id)
	var u *model.User
	if v := args.Get(0); v != nil {
		u = v.(*model.User)
	}
	return u, args.Error(1)
}
