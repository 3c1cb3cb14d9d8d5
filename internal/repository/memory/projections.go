package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type DataLake struct {
	mu     sync.Mutex
	events map[uuid.UUID]entities.DataLakeEvent
}

func NewDataLake() *DataLake {
	return &DataLake{events: map[uuid.UUID]entities.DataLakeEvent{}}
}

func (d *DataLake) SaveEvent(_ context.Context, event entities.DataLakeEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.events[event.ID]; !ok {
		d.events[event.ID] = event
	}
	return nil
}

func (d *DataLake) Count(_ context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.events), nil
}

type SalesReadModel struct {
	mu      sync.Mutex
	sales   map[uuid.UUID]entities.EventSales
	applied map[string]struct{}
}

func NewSalesReadModel() *SalesReadModel {
	return &SalesReadModel{
		sales:   map[uuid.UUID]entities.EventSales{},
		applied: map[string]struct{}{},
	}
}

func (m *SalesReadModel) Get(_ context.Context, eventID uuid.UUID) (entities.EventSales, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sales[eventID]
	if !ok {
		return entities.EventSales{EventID: eventID}, nil
	}
	return s, nil
}

// Apply runs fn once per message id.
func (m *SalesReadModel) Apply(
	_ context.Context,
	eventID uuid.UUID,
	messageID string,
	fn func(s *entities.EventSales),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.applied[messageID]; ok {
		return nil
	}

	s, ok := m.sales[eventID]
	if !ok {
		s = entities.EventSales{EventID: eventID}
	}
	fn(&s)
	s.LastUpdate = time.Now().UTC()

	m.sales[eventID] = s
	m.applied[messageID] = struct{}{}
	return nil
}
