package models

// Order holds the fields a customer supplies when placing an order. The paid
// flag and transaction id are owned by the pay flow and cannot be set here.
type Order struct {
	Email       *string  `json:"email,omitempty" validate:"required"`
	Name        *string  `json:"name,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Address     *string  `json:"address,omitempty"`
	ProductID   *string  `json:"productId,omitempty"`
	ProductName *string  `json:"productName,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// OrderPatch is a partial order update.
type OrderPatch struct {
	Name        *string  `json:"name,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Address     *string  `json:"address,omitempty"`
	ProductID   *string  `json:"productId,omitempty"`
	ProductName *string  `json:"productName,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// Document returns the order as a storable document.
func (o Order) Document() Document {
	return patchOf(o)
}

// Patch returns the fields that were set.
func (o OrderPatch) Patch() Document {
	return patchOf(o)
}

// PaidPatch is the update applied to an order once its payment is recorded.
func PaidPatch(transactionID string) Document {
	return Document{"paid": true, "transactionId": transactionID}
}
