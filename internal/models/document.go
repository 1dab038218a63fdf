package models

import "encoding/json"

// Document is a schema-free record as stored in a collection.
type Document map[string]interface{}

// Filter is an equality match over document fields.
type Filter map[string]interface{}

// Collection names.
const (
	ProductCollection = "products"
	UserCollection    = "users"
	ReviewCollection  = "reviews"
	OrderCollection   = "orders"
	PaymentCollection = "payments"
)

// IDField is the primary key field of every collection.
const IDField = "_id"

// ByID returns the filter matching a document's primary key.
func ByID(id string) Filter {
	return Filter{IDField: id}
}

// ByEmail returns the filter matching the email field.
func ByEmail(email string) Filter {
	return Filter{"email": email}
}

// patchOf flattens an allowlisted record into a Document. Only the fields that
// survive JSON encoding (nil pointers are omitted) end up in the patch.
func patchOf(v interface{}) Document {
	raw, err := json.Marshal(v)
	if err != nil {
		return Document{}
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}
	}
	return doc
}
