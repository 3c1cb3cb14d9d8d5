package ticketdoc_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/infrastructure/ticketdoc"
)

func TestRenderer_QRCode(t *testing.T) {
	png, err := ticketdoc.NewRenderer("INR").QRCode("TKT-1234:payload")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestRenderer_PDF(t *testing.T) {
	starts := time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC)
	event := entities.Event{
		ID:       uuid.New(),
		Title:    "Open Air Concert",
		StartsAt: starts,
		EndsAt:   starts.Add(4 * time.Hour),
	}
	ticket := entities.Ticket{
		ID:        uuid.New(),
		EventID:   event.ID,
		Code:      "TKT-ABCD1234",
		Quantity:  2,
		Price:     99800,
		QRPayload: "payload",
	}

	pdf, err := ticketdoc.NewRenderer("INR").PDF(ticket, event)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Greater(t, len(pdf), 1000)
}
