package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ledger entry types for TransactionHistory.
const (
	LedgerEarn  = "earn"
	LedgerSpend = "spend"
)

// User statuses.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusActive   = "active"
)

// LedgerEntry is one append-only row in a user's transaction history.
type LedgerEntry struct {
	Type           string             `bson:"type" json:"type"` // earn or spend
	Amount         int64              `bson:"amount" json:"amount"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	CounterpartyID primitive.ObjectID `bson:"counterparty_id,omitempty" json:"counterparty_id,omitempty"`
	TransferID     primitive.ObjectID `bson:"transfer_id,omitempty" json:"transfer_id,omitempty"`
}

// Rating is a learner's review of a mentor.
type Rating struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Rating int                `bson:"rating" json:"rating"` // 1 to 5
	Review string             `bson:"review,omitempty" json:"review,omitempty"`
	Date   time.Time          `bson:"date" json:"date"`
}

// User represents a registered user
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password" json:"-"` // Password is not returned in JSON
	MobileNo      string             `bson:"mobile_no,omitempty" json:"mobile_no,omitempty"`
	Gender        string             `bson:"gender,omitempty" json:"gender,omitempty"` // male, female, other
	DOB           string             `bson:"dob,omitempty" json:"dob,omitempty"`
	WalletAddress string             `bson:"wallet_address,omitempty" json:"wallet_address,omitempty"`
	Skills        []string           `bson:"skills,omitempty" json:"skills,omitempty"`

	Status    string     `bson:"status" json:"status"` // pending, verified, active
	Verified  bool       `bson:"verified" json:"verified"`
	OTP       string     `bson:"otp,omitempty" json:"-"`
	OTPExpire *time.Time `bson:"otp_expire,omitempty" json:"-"`

	TokenBalance       int64                `bson:"token_balance" json:"token_balance"`
	TransactionHistory []LedgerEntry        `bson:"transaction_history,omitempty" json:"transaction_history,omitempty"`
	CoursesEnrolled    []primitive.ObjectID `bson:"courses_enrolled,omitempty" json:"courses_enrolled,omitempty"`
	CoursesCompleted   int64                `bson:"courses_completed" json:"courses_completed"`
	CoursesTaught      int64                `bson:"courses_taught" json:"courses_taught"`
	Ratings            []Rating             `bson:"ratings,omitempty" json:"ratings,omitempty"`
	AverageRating      float64              `bson:"average_rating" json:"average_rating"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Dashboard is the condensed profile returned by the dashboard endpoint.
type Dashboard struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	TokenBalance     int64    `json:"token_balance"`
	Skills           []string `json:"skills"`
	CoursesCompleted int64    `json:"courses_completed"`
	CoursesTaught    int64    `json:"courses_taught"`
}
