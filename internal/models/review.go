package models

// Review is an append-only customer review.
type Review struct {
	Name    *string  `json:"name,omitempty"`
	Email   *string  `json:"email,omitempty"`
	Image   *string  `json:"image,omitempty"`
	Rating  *float64 `json:"rating,omitempty"`
	Comment *string  `json:"comment,omitempty"`
}

func (r Review) Document() Document {
	return patchOf(r)
}
