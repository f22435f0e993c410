package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mentorship maps a mentor to a display name and per-session token rate.
type Mentorship struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MentorID primitive.ObjectID `bson:"mentor_id" json:"mentor_id"`
	Name     string             `bson:"name" json:"name"`
	Token    int64              `bson:"token" json:"token"` // session rate in platform tokens
}

// Transfer is the idempotency record for a wallet transfer. The unique index
// on IdempotencyKey makes a retried request apply at most once.
type Transfer struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IdempotencyKey string             `bson:"idempotency_key" json:"idempotency_key"`
	SenderID       primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	RecipientID    primitive.ObjectID `bson:"recipient_id" json:"recipient_id"`
	Amount         int64              `bson:"amount" json:"amount"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Wallet is the balance plus ledger view returned by the wallet endpoint.
type Wallet struct {
	Balance      int64         `json:"balance"`
	Transactions []LedgerEntry `json:"transactions"`
}
