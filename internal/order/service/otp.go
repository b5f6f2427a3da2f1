package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"designden/internal/domain"
)

const (
	otpMin = 1000
	otpMax = 9999
)

type OTPGenerator interface {
	Generate() (string, error)
}

// RandomOTPGenerator draws codes uniformly from [1000, 9999].
type RandomOTPGenerator struct{}

func (RandomOTPGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// ensureOTP attaches a delivery code unless the order already has one. An
// existing code is never replaced.
func ensureOTP(o *domain.Order, gen OTPGenerator, now time.Time) error {
	if o.DeliveryOTP != nil && o.DeliveryOTP.Code != "" {
		return nil
	}

	code, err := gen.Generate()
	if err != nil {
		return err
	}

	o.DeliveryOTP = &domain.DeliveryOTP{
		Code:        code,
		GeneratedAt: now,
		Verified:    false,
	}
	return nil
}
