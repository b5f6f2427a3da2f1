package usecase

import (
	"context"

	"go.uber.org/zap"

	"designden/internal/domain"
)

type MissingOTPFinder interface {
	FindMissingOTP(ctx context.Context) ([]string, error)
}

type OTPBackfiller interface {
	BackfillOTP(ctx context.Context, orderID string) (*domain.Order, error)
}

type BackfillResult struct {
	Scanned int
	Updated int
	Failed  []string
}

// BackfillUseCase gives a delivery code to orders that reached a delivery
// status without one. A failure on one order does not stop the run.
type BackfillUseCase struct {
	finder MissingOTPFinder
	svc    OTPBackfiller
	logger *zap.Logger
}

func NewBackfillUseCase(finder MissingOTPFinder, svc OTPBackfiller, logger *zap.Logger) *BackfillUseCase {
	return &BackfillUseCase{
		finder: finder,
		svc:    svc,
		logger: logger,
	}
}

func (uc *BackfillUseCase) Run(ctx context.Context) (BackfillResult, error) {
	ids, err := uc.finder.FindMissingOTP(ctx)
	if err != nil {
		return BackfillResult{}, err
	}

	result := BackfillResult{Scanned: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if _, err := uc.svc.BackfillOTP(ctx, id); err != nil {
			uc.logger.Warn("otp backfill failed", zap.String("orderId", id), zap.Error(err))
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Updated++
	}

	uc.logger.Info("otp backfill finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}
