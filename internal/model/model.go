package model

import "time"

// User never leaves the service with its PasswordHash: handlers render
// their own response types.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Bucketlist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"created_by"`
	CreatedAt  time.Time `json:"date_created"`
	ModifiedAt time.Time `json:"date_modified"`
	Items      []Item    `json:"items"`
}

type Item struct {
	ID           string    `json:"id"`
	BucketlistID string    `json:"bucketlist_id"`
	Name         string    `json:"name"`
	Done         bool      `json:"done"`
	CreatedAt    time.Time `json:"date_created"`
	ModifiedAt   time.Time `json:"date_modified"`
}

// ItemPatch lists the item fields a caller wants changed; nil means keep.
type ItemPatch struct {
	Name *string
	Done *bool
}
