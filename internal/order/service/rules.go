package service

import (
	"fmt"
	"strings"
	"time"

	"designden/internal/domain"
	apperrors "designden/internal/errors"
)

// DeliveryConfirmation is the proof captured at the door.
type DeliveryConfirmation struct {
	OTP          string
	ReceivedBy   string
	Relationship string
	Notes        string
}

// mutation applies one transition to a checked-out copy of the order. It
// returns an error without side effects the caller can observe, since the
// copy is discarded on failure.
type mutation func(o *domain.Order, now time.Time) error

func requireRole(actor domain.Actor, role domain.Role) error {
	if actor.Role != role {
		return apperrors.NewWrongRoleError(fmt.Sprintf("operation requires role %s, caller is %s", role, actor.Role))
	}
	return nil
}

func requireStatus(o *domain.Order, allowed ...domain.Status) error {
	if domain.IsTerminal(o.Status) {
		return apperrors.NewWrongStateError(fmt.Sprintf("order %s is %s and accepts no further transitions", o.ID, o.Status))
	}
	for _, s := range allowed {
		if o.Status == s {
			return nil
		}
	}
	return apperrors.NewWrongStateError(fmt.Sprintf("order %s is %s, expected %s", o.ID, o.Status, joinStatuses(allowed)))
}

func requireAssignee(assignee *string, actor domain.Actor, what string) error {
	if assignee == nil || *assignee != actor.ID {
		return apperrors.NewWrongRoleError(fmt.Sprintf("caller %s is not the assigned %s", actor.ID, what))
	}
	return nil
}

func joinStatuses(statuses []domain.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, " or ")
}

func record(o *domain.Order, actor domain.Actor, status domain.Status, now time.Time, note, location string) {
	o.Status = status
	o.AppendTimeline(domain.TimelineEvent{
		Status:   status,
		At:       now,
		Note:     note,
		Location: location,
		ActorID:  actor.ID,
	})
}

func stamp(now time.Time) *time.Time {
	return &now
}

func assignToManager(actor domain.Actor) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleManager); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusPending); err != nil {
			return err
		}
		if o.ManagerID != nil {
			return apperrors.NewAlreadyAssignedError(fmt.Sprintf("order %s already has a manager", o.ID))
		}

		managerID := actor.ID
		o.ManagerID = &managerID
		o.Milestones.ManagerAssigned = stamp(now)
		record(o, actor, domain.StatusAssignedToManager, now, "", "")
		return nil
	}
}

func assignDesigner(actor domain.Actor, designerID string) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleManager); err != nil {
			return err
		}
		if domain.IsTerminal(o.Status) {
			return requireStatus(o)
		}
		if !domain.IsCustomOrder(o) {
			return apperrors.NewWrongStateError(fmt.Sprintf("order %s is a shop order and has no design work", o.ID))
		}
		if err := requireStatus(o, domain.StatusAssignedToManager); err != nil {
			return err
		}
		if o.DesignerID != nil {
			return apperrors.NewAlreadyAssignedError(fmt.Sprintf("order %s already has designer %s", o.ID, *o.DesignerID))
		}

		o.DesignerID = &designerID
		o.Milestones.DesignerAssigned = stamp(now)
		record(o, actor, domain.StatusAssignedToDesigner, now, "", "")
		return nil
	}
}

func assignDelivery(actor domain.Actor, deliveryPersonID string, otp OTPGenerator) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleManager); err != nil {
			return err
		}
		required := domain.StatusAssignedToManager
		if domain.IsCustomOrder(o) {
			required = domain.StatusProductionCompleted
		}
		if err := requireStatus(o, required); err != nil {
			return err
		}
		if o.DeliveryPersonID != nil {
			return apperrors.NewAlreadyAssignedError(fmt.Sprintf("order %s already has delivery person %s", o.ID, *o.DeliveryPersonID))
		}
		if err := ensureOTP(o, otp, now); err != nil {
			return err
		}

		o.DeliveryPersonID = &deliveryPersonID
		o.Milestones.DeliveryAssigned = stamp(now)
		record(o, actor, domain.StatusReadyForPickup, now, "", "")
		return nil
	}
}

func acceptDesign(actor domain.Actor) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleDesigner); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusAssignedToDesigner); err != nil {
			return err
		}
		if err := requireAssignee(o.DesignerID, actor, "designer"); err != nil {
			return err
		}

		o.Milestones.DesignerAccepted = stamp(now)
		record(o, actor, domain.StatusDesignerAccepted, now, "", "")
		return nil
	}
}

func startProduction(actor domain.Actor) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleDesigner); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusDesignerAccepted); err != nil {
			return err
		}
		if err := requireAssignee(o.DesignerID, actor, "designer"); err != nil {
			return err
		}

		o.ProgressPercentage = 0
		o.Milestones.ProductionStarted = stamp(now)
		record(o, actor, domain.StatusInProduction, now, "", "")
		return nil
	}
}

// updateProgress rejects values outside 0..100 and decreases; repeating the
// current value only adds a timeline note.
func updateProgress(actor domain.Actor, pct int, note string) mutation {
	return func(o *domain.Order, now time.Time) error {
		if pct < 0 || pct > 100 {
			msg := fmt.Sprintf("progressPercentage must be between 0 and 100, got %d", pct)
			return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
				Field:   "progressPercentage",
				Message: msg,
			})
		}
		if err := requireRole(actor, domain.RoleDesigner); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusInProduction); err != nil {
			return err
		}
		if err := requireAssignee(o.DesignerID, actor, "designer"); err != nil {
			return err
		}
		if pct < o.ProgressPercentage {
			msg := fmt.Sprintf("progress cannot decrease from %d to %d", o.ProgressPercentage, pct)
			return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
				Field:   "progressPercentage",
				Message: msg,
			})
		}

		if note == "" {
			note = fmt.Sprintf("production progress %d%%", pct)
		}
		o.ProgressPercentage = pct
		record(o, actor, domain.StatusInProduction, now, note, "")
		return nil
	}
}

func completeProduction(actor domain.Actor, notes string) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleDesigner); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusInProduction); err != nil {
			return err
		}
		if err := requireAssignee(o.DesignerID, actor, "designer"); err != nil {
			return err
		}
		if o.ProgressPercentage != 100 {
			return apperrors.NewWrongStateError(fmt.Sprintf("order %s is at %d%% progress, production can only complete at 100%%", o.ID, o.ProgressPercentage))
		}

		o.Milestones.ProductionCompleted = stamp(now)
		record(o, actor, domain.StatusProductionCompleted, now, notes, "")
		return nil
	}
}

func pickup(actor domain.Actor, otp OTPGenerator) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleDelivery); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusReadyForPickup); err != nil {
			return err
		}
		if err := requireAssignee(o.DeliveryPersonID, actor, "delivery person"); err != nil {
			return err
		}
		if err := ensureOTP(o, otp, now); err != nil {
			return err
		}

		o.Milestones.PickedUp = stamp(now)
		record(o, actor, domain.StatusPickedUp, now, "", "")
		return nil
	}
}

func markInTransit(actor domain.Actor, location string) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleDelivery); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusPickedUp); err != nil {
			return err
		}
		if err := requireAssignee(o.DeliveryPersonID, actor, "delivery person"); err != nil {
			return err
		}

		record(o, actor, domain.StatusInTransit, now, "", location)
		return nil
	}
}

func markOutForDelivery(actor domain.Actor, location string) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleDelivery); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusPickedUp, domain.StatusInTransit); err != nil {
			return err
		}
		if err := requireAssignee(o.DeliveryPersonID, actor, "delivery person"); err != nil {
			return err
		}

		record(o, actor, domain.StatusOutForDelivery, now, "", location)
		return nil
	}
}

func deliver(actor domain.Actor, conf DeliveryConfirmation) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleDelivery); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusOutForDelivery); err != nil {
			return err
		}
		if err := requireAssignee(o.DeliveryPersonID, actor, "delivery person"); err != nil {
			return err
		}
		if o.DeliveryOTP == nil || o.DeliveryOTP.Code == "" {
			return apperrors.NewWrongStateError(fmt.Sprintf("order %s has no delivery OTP", o.ID))
		}
		if o.DeliveryOTP.Verified {
			return apperrors.NewWrongStateError(fmt.Sprintf("delivery OTP of order %s was already used", o.ID))
		}
		if conf.OTP != o.DeliveryOTP.Code {
			return apperrors.NewOTPMismatchError("delivery OTP does not match")
		}

		o.DeliveryOTP.Verified = true
		o.ProofOfDelivery = &domain.ProofOfDelivery{
			ReceivedBy:   conf.ReceivedBy,
			Relationship: conf.Relationship,
			Notes:        conf.Notes,
			DeliveredAt:  now,
		}
		o.Milestones.Delivered = stamp(now)

		note := "received by " + conf.ReceivedBy
		if conf.Relationship != "" {
			note += " (" + conf.Relationship + ")"
		}
		record(o, actor, domain.StatusDelivered, now, note, "")
		return nil
	}
}

func cancelOrder(actor domain.Actor, reason string) mutation {
	return func(o *domain.Order, now time.Time) error {
		if err := requireRole(actor, domain.RoleCustomer); err != nil {
			return err
		}
		if err := requireStatus(o, domain.StatusPending); err != nil {
			return err
		}
		if o.CustomerID != actor.ID {
			return apperrors.NewWrongRoleError(fmt.Sprintf("caller %s does not own order %s", actor.ID, o.ID))
		}

		record(o, actor, domain.StatusCancelled, now, reason, "")
		return nil
	}
}

// backfillOTP covers orders that reached a delivery status before codes were
// generated.
func backfillOTP(otp OTPGenerator) mutation {
	return func(o *domain.Order, now time.Time) error {
		if !domain.IsDeliveryEligible(o.Status) {
			return apperrors.NewWrongStateError(fmt.Sprintf("order %s is %s and needs no delivery OTP", o.ID, o.Status))
		}
		if o.DeliveryOTP != nil && o.DeliveryOTP.Code != "" {
			return apperrors.NewAlreadyAssignedError(fmt.Sprintf("order %s already has a delivery OTP", o.ID))
		}
		return ensureOTP(o, otp, now)
	}
}
