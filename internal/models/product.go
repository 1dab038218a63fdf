package models

// Product holds the writable product fields.
type Product struct {
	Name              *string  `json:"name,omitempty" validate:"required"`
	Description       *string  `json:"description,omitempty"`
	Image             *string  `json:"image,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	MinimumOrder      *int     `json:"minimumOrder,omitempty"`
	AvailableQuantity *int     `json:"availableQuantity,omitempty"`
}

// ProductPatch is a partial product update; no field is required.
type ProductPatch struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Image             *string  `json:"image,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	MinimumOrder      *int     `json:"minimumOrder,omitempty"`
	AvailableQuantity *int     `json:"availableQuantity,omitempty"`
}

// Document returns the product as a storable document.
func (p Product) Document() Document {
	return patchOf(p)
}

// Patch returns the fields that were set.
func (p ProductPatch) Patch() Document {
	return patchOf(p)
}
