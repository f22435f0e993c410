package store

import (
	"context"
	"sync"
	"time"

	"github.com/skillexchange/skill-exchange-backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory implements Store with in-process maps under one mutex, giving the
// same atomicity the Mongo transactions give. Used by tests and local
// development without a replica set.
type Memory struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]*models.User
	courses   map[primitive.ObjectID]*models.Course
	transfers map[string]*models.Transfer
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[primitive.ObjectID]*models.User),
		courses:   make(map[primitive.ObjectID]*models.Course),
		transfers: make(map[string]*models.Transfer),
	}
}

// PutUser seeds a user. Test helper.
func (s *Memory) PutUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.users[u.ID] = u
}

// PutCourse seeds a course. Test helper.
func (s *Memory) PutCourse(c *models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.courses[c.ID] = c
}

// GetUser returns a seeded user for assertions. Test helper.
func (s *Memory) GetUser(id primitive.ObjectID) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// GetCourse returns a seeded course for assertions. Test helper.
func (s *Memory) GetCourse(id primitive.ObjectID) (*models.Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	return c, ok
}

func (s *Memory) Enroll(_ context.Context, learnerID, courseID primitive.ObjectID) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	learner, ok := s.users[learnerID]
	if !ok {
		return nil, ErrUserNotFound
	}
	course, ok := s.courses[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}
	if course.ProgressFor(learnerID) != nil {
		return nil, ErrAlreadyEnrolled
	}

	course.Progress = append(course.Progress, models.ProgressEntry{LearnerID: learnerID})
	for _, id := range learner.CoursesEnrolled {
		if id == courseID {
			return cloneCourse(course), nil
		}
	}
	learner.CoursesEnrolled = append(learner.CoursesEnrolled, courseID)
	return cloneCourse(course), nil
}

func (s *Memory) UpdateProgress(ctx context.Context, learnerID, courseID primitive.ObjectID, percent int) (*models.ProgressEntry, error) {
	if percent < 0 || percent > 100 {
		return nil, ErrInvalidProgress
	}
	if percent == 100 {
		course, err := s.Complete(ctx, learnerID, courseID)
		if err != nil {
			return nil, err
		}
		entry := course.ProgressFor(learnerID)
		return entry, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}
	entry := course.ProgressFor(learnerID)
	if entry == nil {
		return nil, ErrNotEnrolled
	}
	if entry.Completed {
		return nil, ErrCourseCompleted
	}
	entry.Percent = percent
	out := *entry
	return &out, nil
}

func (s *Memory) Complete(_ context.Context, learnerID, courseID primitive.ObjectID) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}
	entry := course.ProgressFor(learnerID)
	if entry == nil {
		return nil, ErrNotEnrolled
	}
	if !entry.Completed {
		now := time.Now()
		entry.Percent = 100
		entry.Completed = true
		entry.CompletedAt = &now
		if learner, ok := s.users[learnerID]; ok {
			learner.CoursesCompleted++
		}
	}
	return cloneCourse(course), nil
}

func (s *Memory) Progress(_ context.Context, learnerID, courseID primitive.ObjectID) (*models.ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[courseID]
	if !ok {
		return nil, ErrCourseNotFound
	}
	entry := course.ProgressFor(learnerID)
	if entry == nil {
		return nil, ErrProgressNotFound
	}
	out := *entry
	return &out, nil
}

func (s *Memory) CompletedCourses(_ context.Context, learnerID primitive.ObjectID) ([]models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Course
	for _, course := range s.courses {
		if entry := course.ProgressFor(learnerID); entry != nil && entry.Completed {
			out = append(out, *cloneCourse(course))
		}
	}
	return out, nil
}

func (s *Memory) EnrolledCourses(_ context.Context, learnerID primitive.ObjectID) ([]models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Course
	for _, course := range s.courses {
		if course.ProgressFor(learnerID) != nil {
			out = append(out, *cloneCourse(course))
		}
	}
	return out, nil
}

func (s *Memory) Transfer(_ context.Context, req TransferRequest) (*models.Transfer, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.SenderID == req.RecipientID {
		return nil, ErrSelfTransfer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transfers[req.IdempotencyKey]; exists {
		return nil, ErrDuplicateTransfer
	}
	sender, ok := s.users[req.SenderID]
	if !ok {
		return nil, ErrUserNotFound
	}
	recipient, ok := s.users[req.RecipientID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if sender.TokenBalance < req.Amount {
		return nil, ErrInsufficientBalance
	}

	transfer := &models.Transfer{
		ID:             primitive.NewObjectID(),
		IdempotencyKey: req.IdempotencyKey,
		SenderID:       req.SenderID,
		RecipientID:    req.RecipientID,
		Amount:         req.Amount,
		Description:    req.Description,
		CreatedAt:      time.Now(),
	}
	s.transfers[req.IdempotencyKey] = transfer

	sender.TokenBalance -= req.Amount
	sender.TransactionHistory = append(sender.TransactionHistory, models.LedgerEntry{
		Type:           models.LedgerSpend,
		Amount:         req.Amount,
		Timestamp:      transfer.CreatedAt,
		Description:    req.Description,
		CounterpartyID: req.RecipientID,
		TransferID:     transfer.ID,
	})
	recipient.TokenBalance += req.Amount
	recipient.TransactionHistory = append(recipient.TransactionHistory, models.LedgerEntry{
		Type:           models.LedgerEarn,
		Amount:         req.Amount,
		Timestamp:      transfer.CreatedAt,
		Description:    req.Description,
		CounterpartyID: req.SenderID,
		TransferID:     transfer.ID,
	})

	out := *transfer
	return &out, nil
}

func (s *Memory) TransferByKey(_ context.Context, key string) (*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transfer, ok := s.transfers[key]
	if !ok {
		return nil, ErrTransferNotFound
	}
	out := *transfer
	return &out, nil
}

func (s *Memory) Wallet(_ context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	transactions := make([]models.LedgerEntry, len(user.TransactionHistory))
	copy(transactions, user.TransactionHistory)
	return &models.Wallet{Balance: user.TokenBalance, Transactions: transactions}, nil
}

func cloneCourse(c *models.Course) *models.Course {
	out := *c
	out.Progress = make([]models.ProgressEntry, len(c.Progress))
	copy(out.Progress, c.Progress)
	return &out
}
