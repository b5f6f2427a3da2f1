package service

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designden/internal/domain"
)

type stubOTPGenerator struct {
	codes []string
	calls int
	err   error
}

func (g *stubOTPGenerator) Generate() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	code := g.codes[g.calls%len(g.codes)]
	g.calls++
	return code, nil
}

func TestRandomOTPGenerator_Range(t *testing.T) {
	gen := RandomOTPGenerator{}
	for i := 0; i < 500; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 4)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, otpMin)
		assert.LessOrEqual(t, n, otpMax)
	}
}

func TestEnsureOTP(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("generates when missing", func(t *testing.T) {
		gen := &stubOTPGenerator{codes: []string{"4321"}}
		order := &domain.Order{ID: "o-1"}

		require.NoError(t, ensureOTP(order, gen, now))
		require.NotNil(t, order.DeliveryOTP)
		assert.Equal(t, "4321", order.DeliveryOTP.Code)
		assert.Equal(t, now, order.DeliveryOTP.GeneratedAt)
		assert.False(t, order.DeliveryOTP.Verified)
	})

	t.Run("keeps existing code", func(t *testing.T) {
		gen := &stubOTPGenerator{codes: []string{"4321"}}
		order := &domain.Order{ID: "o-1", DeliveryOTP: &domain.DeliveryOTP{Code: "1111"}}

		require.NoError(t, ensureOTP(order, gen, now))
		assert.Equal(t, "1111", order.DeliveryOTP.Code)
		assert.Zero(t, gen.calls)
	})

	t.Run("replaces empty code", func(t *testing.T) {
		gen := &stubOTPGenerator{codes: []string{"2468"}}
		order := &domain.Order{ID: "o-1", DeliveryOTP: &domain.DeliveryOTP{}}

		require.NoError(t, ensureOTP(order, gen, now))
		assert.Equal(t, "2468", order.DeliveryOTP.Code)
	})

	t.Run("propagates generator failure", func(t *testing.T) {
		gen := &stubOTPGenerator{err: errors.New("entropy exhausted")}
		order := &domain.Order{ID: "o-1"}

		assert.Error(t, ensureOTP(order, gen, now))
		assert.Nil(t, order.DeliveryOTP)
	})
}
