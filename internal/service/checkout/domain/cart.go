// internal/service/checkout/domain/cart.go
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Money 以最小货币单位（分）表示金额。
type Money int64

// CartLine 是冻结进快照的一行购物车条目。
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unitPrice"`
}

// Subtotal 返回该行的小计。
func (l CartLine) Subtotal() Money {
	return l.UnitPrice * Money(l.Quantity)
}

// CartSnapshot 是进入结账时一次性冻结的购物车快照，之后不再变化。
// 只有 ValidateCart 能构造它。
type CartSnapshot struct {
	Lines []CartLine `json:"lines"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Subtotal 返回快照中所有行的合计。
func (s CartSnapshot) Subtotal() Money {
	var total Money
	for _, l := range s.Lines {
		total += l.Subtotal()
	}
	return total
}

// ValidateCart 校验原始购物车行并冻结成快照。
// 商品 ID 必须是 RFC-4122 形态（v1–v5）的 UUID；遇到第一条不合法的行立即失败，
// 绝不替它编造一个替代 ID —— 伪造的 ID 会让订单行指向不存在的商品。
func ValidateCart(lines []CartLine) (CartSnapshot, error) {
	for i, line := range lines {
		if err := validateProductID(line.ProductID); err != nil {
			return CartSnapshot{}, NewValidationError(
				fmt.Sprintf("line %d: %v", i+1, err))
		}
		if line.Quantity <= 0 {
			return CartSnapshot{}, NewValidationError(
				fmt.Sprintf("line %d (product %s): quantity must be positive, got %d", i+1, line.ProductID, line.Quantity))
		}
	}

	frozen := make([]CartLine, len(lines))
	copy(frozen, lines)
	return CartSnapshot{Lines: frozen}, nil
}

func validateProductID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("product id %q is not a well-formed UUID", id)
	}
	if v := parsed.Version(); v < 1 || v > 5 {
		return fmt.Errorf("product id %q has unsupported UUID version %d", id, v)
	}
	if parsed.Variant() != uuid.RFC4122 {
		return fmt.Errorf("product id %q is not an RFC-4122 UUID", id)
	}
	return nil
}
