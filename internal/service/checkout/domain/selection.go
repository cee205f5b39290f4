// internal/service/checkout/domain/selection.go
package domain

// Address 来自地址服务，本核心只消费不修改。
type Address struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

// DeliveryMethod 来自配送服务。
type DeliveryMethod struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Fee  Money  `json:"fee"`
}

// Selection 保存用户在 Info 步骤做出的全部选择。
type Selection struct {
	DeliveryAddressID string        `json:"deliveryAddressId"`
	BillingAddressID  string        `json:"billingAddressId"`
	DeliveryMethodID  string        `json:"deliveryMethodId"`
	CouponCode        string        `json:"couponCode,omitempty"`
	CustomerNote      string        `json:"customerNote,omitempty"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
}

// ApplyDefaults 按默认策略预选地址和配送方式：
// 有默认收货地址则同时用于收货和账单，否则取第一个可用地址；
// 配送方式取第一个可用项。任何一类为空就保持空白，由推进校验去拦截。
// 默认值只是便利，不会覆盖用户已经做出的选择。
func (s *Selection) ApplyDefaults(addresses []Address, methods []DeliveryMethod) {
	if s.DeliveryAddressID == "" && len(addresses) > 0 {
		chosen := addresses[0]
		for _, a := range addresses {
			if a.IsDefault {
				chosen = a
				break
			}
		}
		s.DeliveryAddressID = chosen.ID
		if s.BillingAddressID == "" {
			s.BillingAddressID = chosen.ID
		}
	}
	if s.BillingAddressID == "" && s.DeliveryAddressID != "" {
		s.BillingAddressID = s.DeliveryAddressID
	}
	if s.DeliveryMethodID == "" && len(methods) > 0 {
		s.DeliveryMethodID = methods[0].ID
	}
	if s.PaymentMethod == "" {
		s.PaymentMethod = MethodBankTransfer
	}
}

// MissingFields 枚举推进前仍缺失的必填项，全部列出而不是只报第一条。
func (s Selection) MissingFields() []string {
	var missing []string
	if s.DeliveryAddressID == "" {
		missing = append(missing, "deliveryAddressId is required")
	}
	if s.BillingAddressID == "" {
		missing = append(missing, "billingAddressId is required")
	}
	if s.DeliveryMethodID == "" {
		missing = append(missing, "deliveryMethodId is required")
	}
	return missing
}
