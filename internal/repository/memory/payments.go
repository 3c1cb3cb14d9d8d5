package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

type PaymentsRepo struct {
	s *Store
}

func (r *PaymentsRepo) Add(ctx context.Context, p entities.Payment) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.payments[p.ID]; ok {
		return entities.ErrDuplicate
	}
	if err := r.checkOrderID(p); err != nil {
		return err
	}
	r.s.state.payments[p.ID] = p
	return nil
}

func (r *PaymentsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Payment, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.state.payments[id]
	if !ok {
		return entities.Payment{}, entities.Errorf(entities.ErrNotFound, "payment %s", id)
	}
	return p, nil
}

func (r *PaymentsRepo) GetByOrderID(ctx context.Context, orderID string) (entities.Payment, error) {
	defer r.s.lock(ctx)()

	for _, p := range r.s.state.payments {
		if orderID != "" && p.GatewayOrderID == orderID {
			return p, nil
		}
	}
	return entities.Payment{}, entities.Errorf(entities.ErrNotFound, "payment with order %q", orderID)
}

func (r *PaymentsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(p entities.Payment) (entities.Payment, error),
) (entities.Payment, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.state.payments[id]
	if !ok {
		return entities.Payment{}, entities.Errorf(entities.ErrNotFound, "payment %s", id)
	}

	updated, err := updateFn(p)
	if err != nil {
		return entities.Payment{}, err
	}
	if updated.Reference != p.Reference {
		return entities.Payment{}, entities.Errorf(entities.ErrInvalidState, "payment %s reference is immutable", id)
	}
	if err := r.checkOrderID(updated); err != nil {
		return entities.Payment{}, err
	}
	r.s.state.payments[id] = updated
	return updated, nil
}

func (r *PaymentsRepo) ListByReference(ctx context.Context, ref entities.PaymentReference) ([]entities.Payment, error) {
	defer r.s.lock(ctx)()

	var out []entities.Payment
	for _, p := range r.s.state.payments {
		if p.Reference == ref {
			out = append(out, p)
		}
	}
	return sortPayments(out), nil
}

func (r *PaymentsRepo) ListStalePending(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error) {
	return r.listStale(ctx, entities.PaymentStatusPending, updatedBefore)
}

func (r *PaymentsRepo) ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]entities.Payment, error) {
	return r.listStale(ctx, entities.PaymentStatusProcessing, updatedBefore)
}

func (r *PaymentsRepo) listStale(ctx context.Context, status entities.PaymentStatus, updatedBefore time.Time) ([]entities.Payment, error) {
	defer r.s.lock(ctx)()

	var out []entities.Payment
	for _, p := range r.s.state.payments {
		if p.Status == status && p.UpdatedAt.Before(updatedBefore) {
			out = append(out, p)
		}
	}
	return sortPayments(out), nil
}

func (r *PaymentsRepo) checkOrderID(p entities.Payment) error {
	if p.GatewayOrderID == "" {
		return nil
	}
	for _, other := range r.s.state.payments {
		if other.ID != p.ID && other.GatewayOrderID == p.GatewayOrderID {
			return entities.ErrDuplicate
		}
	}
	return nil
}

func sortPayments(ps []entities.Payment) []entities.Payment {
	sort.Slice(ps, func(i, j int) bool { return ps[i].CreatedAt.Before(ps[j].CreatedAt) })
	return ps
}

type RefundsRepo struct {
	s *Store
}

func (r *RefundsRepo) Add(ctx context.Context, refund entities.Refund) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.refunds[refund.ID]; ok {
		return entities.ErrDuplicate
	}
	r.s.state.refunds[refund.ID] = refund
	return nil
}

func (r *RefundsRepo) Get(ctx context.Context, id uuid.UUID) (entities.Refund, error) {
	defer r.s.lock(ctx)()

	refund, ok := r.s.state.refunds[id]
	if !ok {
		return entities.Refund{}, entities.Errorf(entities.ErrNotFound, "refund %s", id)
	}
	return refund, nil
}

func (r *RefundsRepo) UpdateByID(
	ctx context.Context,
	id uuid.UUID,
	updateFn func(refund entities.Refund) (entities.Refund, error),
) (entities.Refund, error) {
	defer r.s.lock(ctx)()

	refund, ok := r.s.state.refunds[id]
	if !ok {
		return entities.Refund{}, entities.Errorf(entities.ErrNotFound, "refund %s", id)
	}

	updated, err := updateFn(refund)
	if err != nil {
		return entities.Refund{}, err
	}
	r.s.state.refunds[id] = updated
	return updated, nil
}

func (r *RefundsRepo) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]entities.Refund, error) {
	defer r.s.lock(ctx)()

	var out []entities.Refund
	for _, refund := range r.s.state.refunds {
		if refund.PaymentID == paymentID {
			out = append(out, refund)
		}
	}
	return sortRefunds(out), nil
}

func (r *RefundsRepo) ListByStatus(ctx context.Context, status entities.RefundStatus) ([]entities.Refund, error) {
	defer r.s.lock(ctx)()

	var out []entities.Refund
	for _, refund := range r.s.state.refunds {
		if refund.Status == status {
			out = append(out, refund)
		}
	}
	return sortRefunds(out), nil
}

func sortRefunds(rs []entities.Refund) []entities.Refund {
	sort.Slice(rs, func(i, j int) bool { return rs[i].CreatedAt.Before(rs[j].CreatedAt) })
	return rs
}
