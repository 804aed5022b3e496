package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/taskboard/internal/model"
)

type TokenVerifier struct{ mock.Mock }

func (m *TokenVerifier) Verify(raw string) (model.Identity, error) {
	args := m.Called(raw)
	var id model.Identity
	if v := args.Get(0); v != nil {
		id = v.(model.Identity)
	}
	return id, args.Error(1)
}
