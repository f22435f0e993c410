// Package store holds the data-access layer for the operations with
// cross-document invariants: enrollment, progress tracking, completion, and
// wallet transfers. Mongo is the production implementation; Memory backs
// tests and local development.
package store

import (
	"context"
	"errors"

	"github.com/skillexchange/skill-exchange-backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrNotEnrolled         = errors.New("not enrolled in this course")
	ErrProgressNotFound    = errors.New("progress not found for this course")
	ErrCourseCompleted     = errors.New("course already completed")
	ErrInvalidProgress     = errors.New("progress must be between 0 and 100")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrSelfTransfer        = errors.New("cannot transfer tokens to yourself")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrDuplicateTransfer   = errors.New("transfer already applied")
	ErrTransferNotFound    = errors.New("transfer not found")
)

// TransferRequest carries one wallet transfer. IdempotencyKey makes a retried
// request apply at most once.
type TransferRequest struct {
	IdempotencyKey string
	SenderID       primitive.ObjectID
	RecipientID    primitive.ObjectID
	Amount         int64
	Description    string
}

// Store is the set of operations whose invariants span documents. Both sides
// of an enrollment or a transfer change together or not at all.
type Store interface {
	// Enroll adds the learner to the course's progress array at 0 percent
	// and the course to the learner's enrolled list. Exactly one of two
	// racing calls for the same pair succeeds; the other sees
	// ErrAlreadyEnrolled.
	Enroll(ctx context.Context, learnerID, courseID primitive.ObjectID) (*models.Course, error)

	// UpdateProgress sets the percent for an enrolled pair. Values outside
	// [0,100] are ErrInvalidProgress; a completed pair is terminal and
	// returns ErrCourseCompleted. Setting 100 completes the course.
	UpdateProgress(ctx context.Context, learnerID, courseID primitive.ObjectID, percent int) (*models.ProgressEntry, error)

	// Complete force-sets 100 percent and the completed flag, bumping the
	// learner's completed counter once. Repeat calls are no-ops.
	Complete(ctx context.Context, learnerID, courseID primitive.ObjectID) (*models.Course, error)

	// Progress returns the entry for a pair, ErrProgressNotFound when the
	// learner has none.
	Progress(ctx context.Context, learnerID, courseID primitive.ObjectID) (*models.ProgressEntry, error)

	// CompletedCourses lists courses the learner has completed.
	CompletedCourses(ctx context.Context, learnerID primitive.ObjectID) ([]models.Course, error)

	// EnrolledCourses lists courses the learner is enrolled in.
	EnrolledCourses(ctx context.Context, learnerID primitive.ObjectID) ([]models.Course, error)

	// Transfer debits the sender, credits the recipient, and appends a
	// ledger entry to each side atomically. A replayed idempotency key
	// returns ErrDuplicateTransfer without re-applying.
	Transfer(ctx context.Context, req TransferRequest) (*models.Transfer, error)

	// TransferByKey returns the recorded transfer for an idempotency key.
	TransferByKey(ctx context.Context, key string) (*models.Transfer, error)

	// Wallet returns the balance and ledger for a user.
	Wallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error)
}
