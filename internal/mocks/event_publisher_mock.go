package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/taskboard/internal/queue"
)

type EventPublisher struct{ mock.Mock }

func (m *EventPublisher) PublishCardEvent(ctx context.Context, ev queue.CardEvent) error {
	return m.Called(ctx, ev).Error(0)
}
