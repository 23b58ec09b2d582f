// internal/domain/models/pipeline.go
package models

import "time"

// Pipeline is a sub-account's sales pipeline. Every sub-account is seeded
// with one pipeline named "Lead Cycle" on first creation.
type Pipeline struct {
	ID           string `bson:"_id" json:"id"`
	Name         string `bson:"name" json:"name"`
	SubAccountID string `bson:"sub_account_id" json:"sub_account_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
