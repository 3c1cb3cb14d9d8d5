package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
	"github.com/yagnesh-3/Fira-sub001/internal/idempotency"
	"github.com/yagnesh-3/Fira-sub001/internal/log"
	"github.com/yagnesh-3/Fira-sub001/internal/observability"
)

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}

type TicketsRepo interface {
	Add(ctx context.Context, t entities.Ticket) error
	Get(ctx context.Context, id uuid.UUID) (entities.Ticket, error)
	GetByCode(ctx context.Context, code string) (entities.Ticket, error)
	UpdateByID(ctx context.Context, id uuid.UUID, updateFn func(t entities.Ticket) (entities.Ticket, error)) (entities.Ticket, error)
}

type EventsRepo interface {
	Get(ctx context.Context, id uuid.UUID) (entities.Event, error)
	ReserveSeats(ctx context.Context, id uuid.UUID, quantity int) (entities.Event, error)
	ReleaseSeats(ctx context.Context, id uuid.UUID, quantity int) error
}

type PaymentsRepo interface {
	ListByReference(ctx context.Context, ref entities.PaymentReference) ([]entities.Payment, error)
}

type AccessGrants interface {
	HasGrant(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
}

type Refunds interface {
	OpenFullRefund(ctx context.Context, payment entities.Payment, requesterID uuid.UUID, reason string) (*entities.Refund, error)
	HasOpenRefund(ctx context.Context, paymentID uuid.UUID) (bool, error)
}

type Renderer interface {
	QRCode(payload string) ([]byte, error)
	PDF(ticket entities.Ticket, event entities.Event) ([]byte, error)
}

type Usecase struct {
	tx       TxManager
	bus      EventBus
	tickets  TicketsRepo
	events   EventsRepo
	payments PaymentsRepo
	grants   AccessGrants
	refunds  Refunds
	renderer Renderer
	codec    entities.QRCodec
}

func NewUsecase(
	tx TxManager,
	bus EventBus,
	tickets TicketsRepo,
	events EventsRepo,
	payments PaymentsRepo,
	grants AccessGrants,
	refunds Refunds,
	renderer Renderer,
	codec entities.QRCodec,
) *Usecase {
	return &Usecase{
		tx:       tx,
		bus:      bus,
		tickets:  tickets,
		events:   events,
		payments: payments,
		grants:   grants,
		refunds:  refunds,
		renderer: renderer,
		codec:    codec,
	}
}

type PurchaseParams struct {
	EventID    uuid.UUID
	Quantity   int
	TicketType entities.TicketType
}

type PurchaseResult struct {
	Ticket          entities.Ticket `json:"ticket"`
	PaymentRequired bool            `json:"payment_required"`
	Amount          int64           `json:"amount"`
}

// Purchase issues a free ticket right away. A priced ticket is created pending and
// only takes seats once its payment is verified.
func (u *Usecase) Purchase(ctx context.Context, userID uuid.UUID, params PurchaseParams) (PurchaseResult, error) {
	result, err := u.purchase(ctx, userID, params)
	if err != nil {
		observability.CountConflict("purchase_ticket", err)
		return PurchaseResult{}, err
	}

	log.FromContext(ctx).
		WithField("ticket", result.Ticket.Code).
		WithField("event_id", result.Ticket.EventID).
		WithField("payment_required", result.PaymentRequired).
		Info("Ticket purchased")

	return result, nil
}

func (u *Usecase) purchase(ctx context.Context, userID uuid.UUID, params PurchaseParams) (PurchaseResult, error) {
	event, err := u.events.Get(ctx, params.EventID)
	if err != nil {
		return PurchaseResult{}, err
	}
	if !event.IsTicketable() {
		return PurchaseResult{}, entities.Errorf(entities.ErrInvalidState, "event %s is %s, tickets are not on sale", event.ID, event.Status)
	}
	if err := u.checkAccess(ctx, event, userID); err != nil {
		return PurchaseResult{}, err
	}

	ticket, err := entities.NewTicket(userID, event, params.Quantity, params.TicketType, u.codec, time.Now())
	if err != nil {
		return PurchaseResult{}, err
	}

	if !ticket.IsFree() {
		if event.SeatsLeft() < ticket.Quantity {
			return PurchaseResult{}, entities.ErrSoldOut
		}
		if err := u.tickets.Add(ctx, ticket); err != nil {
			return PurchaseResult{}, fmt.Errorf("failed to add ticket: %w", err)
		}
		return PurchaseResult{Ticket: ticket, PaymentRequired: true, Amount: ticket.Price}, nil
	}

	err = u.tx.Do(ctx, func(ctx context.Context) error {
		if _, err := u.events.ReserveSeats(ctx, event.ID, ticket.Quantity); err != nil {
			return err
		}
		if err := u.tickets.Add(ctx, ticket); err != nil {
			return fmt.Errorf("failed to add ticket: %w", err)
		}

		return u.bus.Publish(ctx, &entities.TicketIssued_v1{
			Header:     idempotency.EventHeader(ctx),
			TicketID:   ticket.ID,
			TicketCode: ticket.Code,
			EventID:    ticket.EventID,
			UserID:     ticket.UserID,
			Quantity:   ticket.Quantity,
		})
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	return PurchaseResult{Ticket: ticket}, nil
}

func (u *Usecase) checkAccess(ctx context.Context, event entities.Event, userID uuid.UUID) error {
	if event.Visibility != entities.VisibilityPrivate || event.OrganizerID == userID {
		return nil
	}

	ok, err := u.grants.HasGrant(ctx, event.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to check access grant: %w", err)
	}
	if !ok {
		return entities.Errorf(entities.ErrForbidden, "event %s is private, enter its access code first", event.ID)
	}
	return nil
}

// Validate checks a scanned QR payload without admitting the holder.
func (u *Usecase) Validate(ctx context.Context, ticketRef, qrPayload string, scannerEventID uuid.UUID) (entities.Ticket, error) {
	ticket, err := u.lookup(ctx, ticketRef)
	if err != nil {
		return entities.Ticket{}, err
	}
	if err := ticket.CheckAdmission(u.codec, qrPayload, scannerEventID); err != nil {
		return entities.Ticket{}, err
	}
	return ticket, nil
}

type CheckInParams struct {
	TicketRef      string
	QRPayload      string
	ScannerEventID uuid.UUID
}

func (u *Usecase) CheckIn(ctx context.Context, staff entities.Actor, params CheckInParams) (entities.Ticket, error) {
	var ticket entities.Ticket

	err := u.tx.Do(ctx, func(ctx context.Context) error {
		current, err := u.lookup(ctx, params.TicketRef)
		if err != nil {
			return err
		}
		event, err := u.events.Get(ctx, current.EventID)
		if err != nil {
			return err
		}
		if staff.ID != event.OrganizerID && !staff.IsAdmin() {
			return entities.Errorf(entities.ErrForbidden, "only the organizer of event %s can check tickets in", event.ID)
		}

		ticket, err = u.tickets.UpdateByID(ctx, current.ID, func(t entities.Ticket) (entities.Ticket, error) {
			if err := t.CheckAdmission(u.codec, params.QRPayload, params.ScannerEventID); err != nil {
				return entities.Ticket{}, err
			}
			if err := t.CheckIn(staff.ID, time.Now()); err != nil {
				return entities.Ticket{}, err
			}
			return t, nil
		})
		if err != nil {
			return err
		}

		if ticket.PaymentRef != nil {
			refunding, err := u.refunds.HasOpenRefund(ctx, *ticket.PaymentRef)
			if err != nil {
				return err
			}
			if refunding {
				return entities.Errorf(entities.ErrInvalidState, "ticket %s has a refund in progress", ticket.Code)
			}
		}

		return u.bus.Publish(ctx, &entities.TicketCheckedIn_v1{
			Header:      idempotency.EventHeader(ctx),
			TicketID:    ticket.ID,
			EventID:     ticket.EventID,
			Quantity:    ticket.Quantity,
			CheckedInBy: staff.ID,
			UsedAt:      *ticket.UsedAt,
		})
	})
	if err != nil {
		observability.CountConflict("check_in", err)
		return entities.Ticket{}, err
	}

	log.FromContext(ctx).
		WithField("ticket", ticket.Code).
		WithField("staff_id", staff.ID).
		Info("Ticket checked in")

	return ticket, nil
}

type CancelResult struct {
	Ticket entities.Ticket  `json:"ticket"`
	Refund *entities.Refund `json:"refund,omitempty"`
}

// Cancel cancels a free ticket immediately. A paid ticket stays active until the refund opened
// here completes.
func (u *Usecase) Cancel(ctx context.Context, ticketRef string, holderID uuid.UUID, reason string) (CancelResult, error) {
	var result CancelResult

	err := u.tx.Do(ctx, func(ctx context.Context) error {
		current, err := u.lookup(ctx, ticketRef)
		if err != nil {
			return err
		}
		if current.UserID != holderID {
			return entities.Errorf(entities.ErrForbidden, "ticket %s belongs to another user", current.Code)
		}
		if current.Status != entities.TicketStatusActive {
			return entities.Errorf(entities.ErrInvalidState, "ticket %s is %s, not active", current.Code, current.Status)
		}

		if current.IsFree() {
			result.Ticket, err = u.cancelFree(ctx, current, reason)
			return err
		}

		result.Ticket = current
		result.Refund, err = u.refundPaid(ctx, current, holderID, reason)
		return err
	})
	if err != nil {
		return CancelResult{}, err
	}

	log.FromContext(ctx).
		WithField("ticket", result.Ticket.Code).
		WithField("refund_opened", result.Refund != nil).
		Info("Ticket cancellation accepted")

	return result, nil
}

func (u *Usecase) cancelFree(ctx context.Context, ticket entities.Ticket, reason string) (entities.Ticket, error) {
	ticket, err := u.tickets.UpdateByID(ctx, ticket.ID, func(t entities.Ticket) (entities.Ticket, error) {
		if t.Status != entities.TicketStatusActive {
			return entities.Ticket{}, entities.Errorf(entities.ErrInvalidState, "ticket %s is %s, not active", t.Code, t.Status)
		}
		if err := t.Cancel(reason, time.Now()); err != nil {
			return entities.Ticket{}, err
		}
		return t, nil
	})
	if err != nil {
		return entities.Ticket{}, err
	}

	if err := u.events.ReleaseSeats(ctx, ticket.EventID, ticket.Quantity); err != nil {
		return entities.Ticket{}, fmt.Errorf("failed to release seats: %w", err)
	}

	return ticket, u.bus.Publish(ctx, &entities.TicketCancelled_v1{
		Header:   idempotency.EventHeader(ctx),
		TicketID: ticket.ID,
		EventID:  ticket.EventID,
		UserID:   ticket.UserID,
		Quantity: ticket.Quantity,
		Reason:   reason,
	})
}

func (u *Usecase) refundPaid(ctx context.Context, ticket entities.Ticket, holderID uuid.UUID, reason string) (*entities.Refund, error) {
	payments, err := u.payments.ListByReference(ctx, entities.TicketReference(ticket.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to list payments of ticket %s: %w", ticket.Code, err)
	}

	for _, p := range payments {
		if p.Status != entities.PaymentStatusSuccess {
			continue
		}
		if ticket.PaymentRef != nil && *ticket.PaymentRef != p.ID {
			continue
		}

		refund, err := u.refunds.OpenFullRefund(ctx, p, holderID, "ticket cancelled: "+reason)
		if err != nil {
			return nil, err
		}
		if refund == nil {
			return nil, entities.Errorf(entities.ErrAlreadyProcessed, "a refund for ticket %s is already open", ticket.Code)
		}
		return refund, nil
	}

	return nil, entities.Errorf(entities.ErrInvalidState, "ticket %s has no successful payment to refund", ticket.Code)
}

func (u *Usecase) GetTicket(ctx context.Context, actor entities.Actor, ticketRef string) (entities.Ticket, error) {
	ticket, _, err := u.viewable(ctx, actor, ticketRef)
	return ticket, err
}

func (u *Usecase) QRCode(ctx context.Context, actor entities.Actor, ticketRef string) ([]byte, error) {
	ticket, _, err := u.viewable(ctx, actor, ticketRef)
	if err != nil {
		return nil, err
	}
	return u.renderer.QRCode(ticket.QRPayload)
}

func (u *Usecase) PDF(ctx context.Context, actor entities.Actor, ticketRef string) ([]byte, error) {
	ticket, event, err := u.viewable(ctx, actor, ticketRef)
	if err != nil {
		return nil, err
	}
	return u.renderer.PDF(ticket, event)
}

// viewable loads a ticket visible to its holder, the event organizer and admins.
func (u *Usecase) viewable(ctx context.Context, actor entities.Actor, ticketRef string) (entities.Ticket, entities.Event, error) {
	ticket, err := u.lookup(ctx, ticketRef)
	if err != nil {
		return entities.Ticket{}, entities.Event{}, err
	}
	event, err := u.events.Get(ctx, ticket.EventID)
	if err != nil {
		return entities.Ticket{}, entities.Event{}, err
	}
	if actor.ID != ticket.UserID && actor.ID != event.OrganizerID && !actor.IsAdmin() {
		return entities.Ticket{}, entities.Event{}, entities.Errorf(entities.ErrForbidden, "ticket %s is not visible to %s", ticket.Code, actor.ID)
	}
	return ticket, event, nil
}

// lookup accepts either the ticket uuid or its TKT- code.
func (u *Usecase) lookup(ctx context.Context, ref string) (entities.Ticket, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return u.tickets.Get(ctx, id)
	}
	return u.tickets.GetByCode(ctx, ref)
}
