package models

// InsertResult mirrors the document database's insert acknowledgement.
type InsertResult struct {
	InsertedID interface{} `json:"insertedId"`
}

// UpdateResult mirrors the document database's update acknowledgement.
type UpdateResult struct {
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}

// DeleteResult mirrors the document database's delete acknowledgement.
type DeleteResult struct {
	DeletedCount int64 `json:"deletedCount"`
}

// PayResult reports both writes of the pay flow.
type PayResult struct {
	Payment *InsertResult `json:"payment"`
	Order   *UpdateResult `json:"order"`
}
