// internal/service/checkout/domain/order.go
package domain

// OrderStatus 是订单服务拥有的订单状态，这里只做只读消费。
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus 是订单上的支付状态。
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order 是订单服务返回的订单，本核心只持有一份只读缓存副本。
type Order struct {
	ID            string        `json:"id"`
	OrderNumber   string        `json:"orderNumber"`
	Subtotal      Money         `json:"subtotal"`
	Shipping      Money         `json:"shipping"`
	Discount      Money         `json:"discount"`
	Total         Money         `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

// OrderCreationRequest 是提交给订单服务的创建请求。
// 它完全由快照和选择派生，永远不手工拼装。
type OrderCreationRequest struct {
	CustomerID        string        `json:"customerId"`
	DeliveryAddressID string        `json:"deliveryAddressId"`
	BillingAddressID  string        `json:"billingAddressId"`
	DeliveryMethodID  string        `json:"deliveryMethodId"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	CouponCode        string        `json:"couponCode,omitempty"`
	CustomerNote      string        `json:"customerNote,omitempty"`
	Lines             []CartLine    `json:"lines"`
}

// BuildOrderRequest 从快照和选择派生订单创建请求。
func BuildOrderRequest(customerID string, snapshot CartSnapshot, sel Selection) OrderCreationRequest {
	return OrderCreationRequest{
		CustomerID:        customerID,
		DeliveryAddressID: sel.DeliveryAddressID,
		BillingAddressID:  sel.BillingAddressID,
		DeliveryMethodID:  sel.DeliveryMethodID,
		PaymentMethod:     sel.PaymentMethod,
		CouponCode:        sel.CouponCode,
		CustomerNote:      sel.CustomerNote,
		Lines:             snapshot.Lines,
	}
}
