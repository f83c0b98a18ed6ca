package model

// OrderStatus describes the fulfillment lifecycle of an order. The same
// vocabulary and transition table back both the operator console and the
// shopper app, so a state is added or renamed in exactly one place.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusDelivered  OrderStatus = "delivered"
	// OrderStatusReturning is virtual: the backend never reports it. The
	// gateway enters it when the operator confirms drop-off and leaves it
	// when the simulated return flight lands.
	OrderStatusReturning OrderStatus = "returning"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions is the explicit forward-transition table. Cancellation is
// handled separately: it is legal from every non-terminal state.
var orderTransitions = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusConfirmed,
	OrderStatusConfirmed:  OrderStatusPreparing,
	OrderStatusPreparing:  OrderStatusReady,
	OrderStatusReady:      OrderStatusDelivering,
	OrderStatusDelivering: OrderStatusDelivered,
	OrderStatusDelivered:  OrderStatusReturning,
	OrderStatusReturning:  OrderStatusCompleted,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "Pending",
	OrderStatusConfirmed:  "Confirmed",
	OrderStatusPreparing:  "Preparing",
	OrderStatusReady:      "Ready for pickup",
	OrderStatusDelivering: "Out for delivery",
	OrderStatusDelivered:  "Delivered",
	OrderStatusReturning:  "Drone returning",
	OrderStatusCompleted:  "Completed",
	OrderStatusCancelled:  "Cancelled",
}

// Valid reports whether the status belongs to the shared vocabulary.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// IsTerminal reports whether no transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Next returns the forward successor of the status, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := orderTransitions[s]
	return next, ok
}

// CanTransition reports whether moving from s to the given status is legal.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s.IsTerminal() || !to.Valid() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return orderTransitions[s] == to
}

// ClientAsserted reports whether the transition is committed by the gateway
// rather than reflected from the backend. Only the return leg is: entering
// the virtual returning state and closing it out as completed.
func (s OrderStatus) ClientAsserted(to OrderStatus) bool {
	if s == OrderStatusDelivered && to == OrderStatusReturning {
		return true
	}
	return s == OrderStatusReturning && to == OrderStatusCompleted
}

// Label returns the human-readable name shown by both surfaces.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// LineItem is a single ordered dish.
type LineItem struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

// Order describes an order as reported by the ordering backend. The gateway
// holds a read-mostly copy refreshed by polling; the backend owns the record.
type Order struct {
	ID              string
	Number          string
	Items           []LineItem
	Subtotal        float64
	Discount        float64
	PlatformFee     float64
	Total           float64
	DeliveryAddress string
	PaymentMethod   string
	PaymentState    string
	Note            string
	Status          OrderStatus
}
