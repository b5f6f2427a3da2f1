package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverStart_PanicBecomesError(t *testing.T) {
	dsn, err := recoverStart(func() (string, error) {
		panic("rootless Docker not found")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rootless Docker not found")
	assert.Empty(t, dsn)
}

func TestRecoverStart_PassesThroughResult(t *testing.T) {
	dsn, err := recoverStart(func() (string, error) {
		return "user:pass@tcp(localhost:3306)/db", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/db", dsn)

	boom := errors.New("boom")
	_, err = recoverStart(func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}

func TestWithParam(t *testing.T) {
	assert.Equal(t, "dsn?a=1", withParam("dsn", "a=1"))
	assert.Equal(t, "dsn?x=y&a=1", withParam("dsn?x=y", "a=1"))
}
