// internal/service/checkout/domain/cart_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCart_FreezesValidLines(t *testing.T) {
	lines := []CartLine{
		{ProductID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Quantity: 2, UnitPrice: 1500},
		{ProductID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Quantity: 1, UnitPrice: 4200},
	}

	snapshot, err := ValidateCart(lines)
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 2)
	assert.Equal(t, Money(7200), snapshot.Subtotal())

	// 快照是独立副本，调用方之后改原切片不影响它
	lines[0].Quantity = 99
	assert.Equal(t, 2, snapshot.Lines[0].Quantity)
}

func TestValidateCart_RejectsMalformedProductID(t *testing.T) {
	lines := []CartLine{
		{ProductID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Quantity: 1, UnitPrice: 100},
		{ProductID: "not-a-uuid", Quantity: 1, UnitPrice: 100},
	}

	_, err := ValidateCart(lines)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Contains(t, ve.Violations[0], "line 2")
	assert.Contains(t, ve.Violations[0], "not-a-uuid")
}

func TestValidateCart_RejectsNonRFC4122UUID(t *testing.T) {
	// 合法十六进制但 variant 不是 RFC-4122
	_, err := ValidateCart([]CartLine{
		{ProductID: "6ba7b810-9dad-11d1-c0b4-00c04fd430c8", Quantity: 1, UnitPrice: 100},
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidateCart_RejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -3} {
		_, err := ValidateCart([]CartLine{
			{ProductID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Quantity: qty, UnitPrice: 100},
		})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "quantity %d should be rejected", qty)
		assert.Contains(t, ve.Violations[0], "quantity must be positive")
	}
}

func TestValidateCart_EmptyCartFreezesButIsEmpty(t *testing.T) {
	// 空购物车在冻结阶段不报错，由推进校验去拦
	snapshot, err := ValidateCart(nil)
	require.NoError(t, err)
	assert.True(t, snapshot.IsEmpty())
	assert.Equal(t, Money(0), snapshot.Subtotal())
}
