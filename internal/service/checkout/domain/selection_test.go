// internal/service/checkout/domain/selection_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_PrefersDefaultAddressForBoth(t *testing.T) {
	sel := Selection{}
	sel.ApplyDefaults(
		[]Address{
			{ID: "addr-1"},
			{ID: "addr-2", IsDefault: true},
		},
		[]DeliveryMethod{{ID: "dm-express"}, {ID: "dm-regular"}},
	)

	assert.Equal(t, "addr-2", sel.DeliveryAddressID)
	assert.Equal(t, "addr-2", sel.BillingAddressID)
	assert.Equal(t, "dm-express", sel.DeliveryMethodID)
	assert.Equal(t, MethodBankTransfer, sel.PaymentMethod)
}

func TestApplyDefaults_FallsBackToFirstAddress(t *testing.T) {
	sel := Selection{}
	sel.ApplyDefaults([]Address{{ID: "addr-1"}, {ID: "addr-2"}}, nil)

	assert.Equal(t, "addr-1", sel.DeliveryAddressID)
	assert.Equal(t, "addr-1", sel.BillingAddressID)
	assert.Empty(t, sel.DeliveryMethodID)
}

func TestApplyDefaults_NeverOverridesUserChoices(t *testing.T) {
	sel := Selection{
		DeliveryAddressID: "mine",
		BillingAddressID:  "billing",
		DeliveryMethodID:  "dm-mine",
		PaymentMethod:     MethodEWallet,
	}
	sel.ApplyDefaults(
		[]Address{{ID: "addr-default", IsDefault: true}},
		[]DeliveryMethod{{ID: "dm-first"}},
	)

	assert.Equal(t, "mine", sel.DeliveryAddressID)
	assert.Equal(t, "billing", sel.BillingAddressID)
	assert.Equal(t, "dm-mine", sel.DeliveryMethodID)
	assert.Equal(t, MethodEWallet, sel.PaymentMethod)
}

func TestApplyDefaults_EmptyDirectoriesLeaveSelectionBlank(t *testing.T) {
	sel := Selection{}
	sel.ApplyDefaults(nil, nil)

	assert.Empty(t, sel.DeliveryAddressID)
	assert.Empty(t, sel.BillingAddressID)
	assert.Empty(t, sel.DeliveryMethodID)
}

func TestMissingFields_ListsEveryMissingItem(t *testing.T) {
	missing := Selection{}.MissingFields()
	assert.Len(t, missing, 3)

	missing = Selection{DeliveryAddressID: "a", BillingAddressID: "b", DeliveryMethodID: "c"}.MissingFields()
	assert.Empty(t, missing)
}
