package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"designden/internal/catalog"
	"designden/internal/domain"
	dtoerrors "designden/internal/errors"
)

const (
	maxCheckoutLines = 100
	maxLineQuantity  = 100
	maxSizeLength    = 16
	maxColorLength   = 32
)

type Pricer interface {
	PriceItems(ctx context.Context, lines []catalog.LineRequest) ([]domain.OrderItem, error)
}

type OrderCreator interface {
	Insert(ctx context.Context, order *domain.Order) error
}

type CheckoutInput struct {
	Lines           []catalog.LineRequest
	ShippingAddress domain.Address
	PaymentStatus   domain.PaymentStatus
}

// CheckoutUseCase turns a priced cart into a pending order. Placement is
// recorded as a milestone; the timeline starts empty.
type CheckoutUseCase struct {
	pricer Pricer
	repo   OrderCreator
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewCheckoutUseCase(pricer Pricer, repo OrderCreator, logger *zap.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{
		pricer: pricer,
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (uc *CheckoutUseCase) Checkout(ctx context.Context, actor domain.Actor, in CheckoutInput) (*domain.Order, error) {
	if actor.Role != domain.RoleCustomer {
		return nil, dtoerrors.NewWrongRoleError(fmt.Sprintf("checkout requires role %s, caller is %s", domain.RoleCustomer, actor.Role))
	}

	if in.PaymentStatus == "" {
		in.PaymentStatus = domain.PaymentPending
	}
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	items, err := uc.pricer.PriceItems(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	placed := now
	order := &domain.Order{
		ID:              uc.newID(),
		CustomerID:      actor.ID,
		OrderType:       domain.ClassifyItems(items),
		Status:          domain.StatusPending,
		Items:           items,
		TotalAmount:     total(items),
		PaymentStatus:   in.PaymentStatus,
		ShippingAddress: in.ShippingAddress,
		Milestones:      domain.Milestones{OrderPlaced: &placed},
		Timeline:        []domain.TimelineEvent{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.repo.Insert(ctx, order); err != nil {
		return nil, err
	}

	uc.logger.Info("order placed",
		zap.String("orderId", order.ID),
		zap.String("actorId", actor.ID),
		zap.String("orderType", string(order.OrderType)),
		zap.Int("itemCount", len(items)),
		zap.Float64("totalAmount", order.TotalAmount),
	)

	return order, nil
}

func validateCheckout(in CheckoutInput) error {
	var details []dtoerrors.ValidationDetail

	if len(in.Lines) == 0 {
		details = append(details, dtoerrors.ValidationDetail{Field: "items", Message: "items must not be empty"})
	}
	if len(in.Lines) > maxCheckoutLines {
		details = append(details, dtoerrors.ValidationDetail{Field: "items", Message: fmt.Sprintf("items exceeds maximum of %d", maxCheckoutLines)})
	}

	for idx, l := range in.Lines {
		field := fmt.Sprintf("items[%d]", idx)
		hasProduct := strings.TrimSpace(l.ProductID) != ""
		hasDesign := strings.TrimSpace(l.DesignID) != ""
		if hasProduct == hasDesign {
			details = append(details, dtoerrors.ValidationDetail{Field: field, Message: "exactly one of productId and designId is required"})
		}
		if l.Quantity < 1 || l.Quantity > maxLineQuantity {
			details = append(details, dtoerrors.ValidationDetail{Field: field + ".quantity", Message: fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity)})
		}
		for _, c := range []*dtoerrors.ValidationDetail{
			maxLength(field+".productId", l.ProductID, maxIDLength),
			maxLength(field+".designId", l.DesignID, maxIDLength),
			maxLength(field+".size", l.Size, maxSizeLength),
			maxLength(field+".color", l.Color, maxColorLength),
		} {
			if c != nil {
				details = append(details, *c)
			}
		}
	}

	addr := in.ShippingAddress
	for _, f := range []struct{ field, value string }{
		{"shippingAddress.fullName", addr.FullName},
		{"shippingAddress.line1", addr.Line1},
		{"shippingAddress.city", addr.City},
		{"shippingAddress.zipCode", addr.ZipCode},
	} {
		if d := requireText(f.field, f.value); d != nil {
			details = append(details, *d)
		}
	}

	switch in.PaymentStatus {
	case domain.PaymentPending, domain.PaymentPaid:
	default:
		details = append(details, dtoerrors.ValidationDetail{Field: "paymentStatus", Message: "paymentStatus must be pending or paid"})
	}

	if len(details) > 0 {
		return dtoerrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func total(items []domain.OrderItem) float64 {
	var sum float64
	for _, i := range items {
		sum += i.Subtotal()
	}
	return math.Round(sum*100) / 100
}
