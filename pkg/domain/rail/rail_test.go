package rail_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirasaad/railpay/pkg/domain/rail"
	"github.com/amirasaad/railpay/pkg/money"
)

func TestBuilder(t *testing.T) {
	userID := uuid.New()

	t.Run("builds with all fields", func(t *testing.T) {
		src, err := rail.New().
			WithID("tng-wallet").
			WithUserID(userID).
			WithKind(rail.KindWallet).
			WithName("Touch 'n Go eWallet").
			WithCurrency(money.MYR).
			WithBalance(25000).
			WithPriorityRank(1).
			WithCapabilities(rail.CanPayQR, rail.CanP2P).
			WithMaxAutoTopUp(20000).
			Build()
		require.NoError(t, err)

		assert.Equal(t, "tng-wallet", src.ID)
		assert.Equal(t, userID, src.UserID)
		assert.Equal(t, rail.KindWallet, src.Kind)
		assert.Equal(t, int64(25000), src.Balance.Amount())
		assert.True(t, src.Capabilities.Has(rail.CanPayQR))
		assert.False(t, src.Capabilities.Has(rail.CanInstallment))
	})

	t.Run("defaults to linked and available", func(t *testing.T) {
		src, err := rail.New().WithID("r").Build()
		require.NoError(t, err)
		assert.Equal(t, rail.StatusLinked, src.LinkedStatus)
		assert.True(t, src.Available)
		assert.Equal(t, money.DefaultCode, src.Balance.Code())
	})

	t.Run("requires an ID", func(t *testing.T) {
		_, err := rail.New().Build()
		assert.ErrorIs(t, err, rail.ErrRailIDRequired)
	})

	t.Run("rejects rank below one", func(t *testing.T) {
		_, err := rail.New().WithID("r").WithPriorityRank(0).Build()
		assert.ErrorIs(t, err, rail.ErrInvalidPriorityRank)
	})
}

func TestFundingSource_Covering(t *testing.T) {
	src, err := rail.New().
		WithID("wallet").
		WithBalance(5000).
		WithMaxAutoTopUp(10000).
		Build()
	require.NoError(t, err)

	t.Run("covers amounts up to the balance", func(t *testing.T) {
		assert.True(t, src.CanCover(money.Must(50, money.MYR)))
		assert.False(t, src.CanCover(money.Must(50.01, money.MYR)))
	})

	t.Run("shortfall is amount minus balance", func(t *testing.T) {
		short := src.Shortfall(money.Must(80, money.MYR))
		assert.Equal(t, int64(3000), short.Amount())
	})

	t.Run("shortfall is zero when covered", func(t *testing.T) {
		assert.True(t, src.Shortfall(money.Must(10, money.MYR)).IsZero())
	})

	t.Run("top-up covers shortfall within allowance", func(t *testing.T) {
		assert.True(t, src.CanTopUp(money.Must(150, money.MYR)))
		assert.False(t, src.CanTopUp(money.Must(150.01, money.MYR)))
	})

	t.Run("no top-up needed when covered", func(t *testing.T) {
		assert.False(t, src.CanTopUp(money.Must(50, money.MYR)))
	})
}

func TestFundingSource_UniversalFallback(t *testing.T) {
	universal, err := rail.New().
		WithID("bank").
		WithCapabilities(rail.CanP2P, rail.UniversalFallback).
		Build()
	require.NoError(t, err)
	assert.True(t, universal.IsUniversalFallback())

	plain, err := rail.New().WithID("wallet").WithCapabilities(rail.CanPayQR).Build()
	require.NoError(t, err)
	assert.False(t, plain.IsUniversalFallback())
}
