package core

import (
	"context"
	"fmt"
	"strings"

	"venueflow/pkg/domain"
)

// RechargeInput carries the fields of a new recharge request.
type RechargeInput struct {
	CustomerID  string `json:"customer_id"`
	Amount      int64  `json:"amount"`
	GiftProduct string `json:"gift_product"`
	ImageURL    string `json:"image_url"`
}

// RequestTransition requests a leader decision on a recharge or consumption
// request. A non-zero ExpectedVersion must match the stored version.
type RequestTransition struct {
	RequestID       string              `json:"request_id"`
	Event           domain.RequestEvent `json:"event"`
	Reason          string              `json:"reason"`
	ExpectedVersion int64               `json:"expected_version"`
}

func (in RequestTransition) validate() (string, error) {
	if !in.Event.Valid() {
		return "", domain.ValidationError{Field: "event", Message: fmt.Sprintf("unsupported request event %q", in.Event)}
	}
	reason := strings.TrimSpace(in.Reason)
	if in.Event == domain.RequestEventReject && reason == "" {
		return "", domain.ValidationError{Field: "reason", Message: "required to reject"}
	}
	return reason, nil
}

// CreateRechargeRequest files a top-up for the creator's leader to decide.
// The approver is captured now and never recomputed.
func (s *Service) CreateRechargeRequest(ctx context.Context, p domain.Principal, in RechargeInput) (domain.RechargeRequest, error) {
	if err := validPrincipal(p); err != nil {
		return domain.RechargeRequest{}, err
	}
	if in.Amount <= 0 {
		return domain.RechargeRequest{}, domain.ValidationError{Field: "amount", Message: "must be positive"}
	}
	if strings.TrimSpace(in.CustomerID) == "" {
		return domain.RechargeRequest{}, domain.ValidationError{Field: "customer_id", Message: "required"}
	}
	var created domain.RechargeRequest
	err := s.mutate(ctx, domain.EntityRechargeRequest, "create", p, func(tx domain.Transaction) error {
		customer, ok := tx.FindCustomer(in.CustomerID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityCustomer, ID: in.CustomerID}
		}
		roster := newRosterIndex(tx)
		if err := CanTransition(p, roster, customerSubject(customer), ActionViewCustomer).Err(p, ActionViewCustomer); err != nil {
			return err
		}
		if err := CanTransition(p, roster, Subject{OwnerStaffNo: p.StaffNo}, ActionCreateRecharge).Err(p, ActionCreateRecharge); err != nil {
			return err
		}
		leaderID, ok := leaderFor(tx, p.StaffNo)
		if !ok {
			return domain.PreconditionError{Message: fmt.Sprintf("staff %s has no leader to approve the recharge", p.StaffNo)}
		}
		var err error
		created, err = tx.CreateRechargeRequest(domain.RechargeRequest{
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Amount:       in.Amount,
			GiftProduct:  strings.TrimSpace(in.GiftProduct),
			ImageURL:     strings.TrimSpace(in.ImageURL),
			Status:       domain.RequestPending,
			Sales:        p.Ref(),
			LeaderID:     leaderID,
		})
		return err
	})
	return created, err
}

// TransitionRecharge approves or rejects a pending recharge request.
func (s *Service) TransitionRecharge(ctx context.Context, p domain.Principal, in RequestTransition) (domain.RechargeRequest, error) {
	if err := validPrincipal(p); err != nil {
		return domain.RechargeRequest{}, err
	}
	reason, err := in.validate()
	if err != nil {
		return domain.RechargeRequest{}, err
	}
	action := ActionApproveRecharge
	if in.Event == domain.RequestEventReject {
		action = ActionRejectRecharge
	}
	var updated domain.RechargeRequest
	err = s.mutate(ctx, domain.EntityRechargeRequest, string(in.Event), p, func(tx domain.Transaction) error {
		current, ok := tx.FindRechargeRequest(in.RequestID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityRechargeRequest, ID: in.RequestID}
		}
		if err := CanTransition(p, newRosterIndex(tx), rechargeSubject(current), action).Err(p, action); err != nil {
			return err
		}
		if err := checkVersion(domain.EntityRechargeRequest, current.ID, in.ExpectedVersion, current.Version); err != nil {
			return err
		}
		var err error
		updated, err = tx.UpdateRechargeRequest(current.ID, func(r *domain.RechargeRequest) error {
			next, ok := domain.NextRequestStatus(r.Status, in.Event)
			if !ok {
				return domain.PreconditionError{Message: fmt.Sprintf("recharge request %s is already %s", r.ID, r.Status)}
			}
			r.Status = next
			if in.Event == domain.RequestEventReject {
				r.RejectReason = reason
			}
			return nil
		})
		return err
	})
	return updated, err
}
