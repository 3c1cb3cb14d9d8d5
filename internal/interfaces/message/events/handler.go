package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/notify"
)

type SalesReadModel interface {
	Apply(ctx context.Context, eventID uuid.UUID, messageID string, fn func(s *entities.EventSales)) error
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

type DataLake interface {
	SaveEvent(ctx context.Context, event entities.DataLakeEvent) error
}

type Handler struct {
	sales    SalesReadModel
	notifier Notifier
}

func NewHandler(sales SalesReadModel, notifier Notifier) *Handler {
	return &Handler{
		sales:    sales,
		notifier: notifier,
	}
}
