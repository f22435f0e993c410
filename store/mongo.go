package store

import (
	"context"
	"fmt"
	"time"

	"github.com/skillexchange/skill-exchange-backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Mongo implements Store on top of a MongoDB replica set. Cross-document
// writes run inside a session transaction; single-document updates use
// filtered UpdateOne so concurrent mutations of the same pair cannot both
// pass a check-then-act window.
type Mongo struct {
	client *mongo.Client
	dbName string
}

func NewMongo(client *mongo.Client, dbName string) *Mongo {
	return &Mongo{client: client, dbName: dbName}
}

func (s *Mongo) users() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("users")
}

func (s *Mongo) courses() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("courses")
}

func (s *Mongo) transfers() *mongo.Collection {
	return s.client.Database(s.dbName).Collection("transfers")
}

func (s *Mongo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Mongo) Enroll(ctx context.Context, learnerID, courseID primitive.ObjectID) (*models.Course, error) {
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.users().FindOne(sc, bson.M{"_id": learnerID}).Err(); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrUserNotFound
			}
			return err
		}

		entry := models.ProgressEntry{LearnerID: learnerID, Percent: 0, Completed: false}
		// The learner_id filter is the enrollment guard: of two racing
		// enrolls only one matches.
		res, err := s.courses().UpdateOne(sc,
			bson.M{"_id": courseID, "progress.learner_id": bson.M{"$ne": learnerID}},
			bson.M{"$push": bson.M{"progress": entry}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			if err := s.courses().FindOne(sc, bson.M{"_id": courseID}).Err(); err == mongo.ErrNoDocuments {
				return ErrCourseNotFound
			} else if err != nil {
				return err
			}
			return ErrAlreadyEnrolled
		}

		_, err = s.users().UpdateOne(sc,
			bson.M{"_id": learnerID},
			bson.M{
				"$addToSet": bson.M{"courses_enrolled": courseID},
				"$set":      bson.M{"updated_at": time.Now()},
			})
		return err
	})
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := s.courses().FindOne(ctx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *Mongo) UpdateProgress(ctx context.Context, learnerID, courseID primitive.ObjectID, percent int) (*models.ProgressEntry, error) {
	if percent < 0 || percent > 100 {
		return nil, ErrInvalidProgress
	}
	if percent == 100 {
		course, err := s.Complete(ctx, learnerID, courseID)
		if err != nil {
			return nil, err
		}
		return course.ProgressFor(learnerID), nil
	}

	res, err := s.courses().UpdateOne(ctx,
		bson.M{"_id": courseID, "progress": bson.M{"$elemMatch": bson.M{"learner_id": learnerID, "completed": false}}},
		bson.M{"$set": bson.M{"progress.$.percent": percent}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, s.explainProgressMiss(ctx, learnerID, courseID)
	}
	return &models.ProgressEntry{LearnerID: learnerID, Percent: percent}, nil
}

// explainProgressMiss disambiguates a guarded update that matched nothing:
// missing course, unenrolled learner, or terminal completion.
func (s *Mongo) explainProgressMiss(ctx context.Context, learnerID, courseID primitive.ObjectID) error {
	var course models.Course
	if err := s.courses().FindOne(ctx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrCourseNotFound
		}
		return err
	}
	entry := course.ProgressFor(learnerID)
	if entry == nil {
		return ErrNotEnrolled
	}
	if entry.Completed {
		return ErrCourseCompleted
	}
	return fmt.Errorf("progress update matched no document for learner %s course %s", learnerID.Hex(), courseID.Hex())
}

func (s *Mongo) Complete(ctx context.Context, learnerID, courseID primitive.ObjectID) (*models.Course, error) {
	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		res, err := s.courses().UpdateOne(sc,
			bson.M{"_id": courseID, "progress": bson.M{"$elemMatch": bson.M{"learner_id": learnerID, "completed": false}}},
			bson.M{"$set": bson.M{
				"progress.$.percent":      100,
				"progress.$.completed":    true,
				"progress.$.completed_at": now,
			}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			missErr := s.explainProgressMiss(sc, learnerID, courseID)
			if missErr == ErrCourseCompleted {
				// Completion is terminal and idempotent; the counter was
				// bumped on the first call.
				return nil
			}
			return missErr
		}

		_, err = s.users().UpdateOne(sc,
			bson.M{"_id": learnerID},
			bson.M{"$inc": bson.M{"courses_completed": 1}, "$set": bson.M{"updated_at": now}})
		return err
	})
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := s.courses().FindOne(ctx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *Mongo) Progress(ctx context.Context, learnerID, courseID primitive.ObjectID) (*models.ProgressEntry, error) {
	var course models.Course
	if err := s.courses().FindOne(ctx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	entry := course.ProgressFor(learnerID)
	if entry == nil {
		return nil, ErrProgressNotFound
	}
	return entry, nil
}

func (s *Mongo) CompletedCourses(ctx context.Context, learnerID primitive.ObjectID) ([]models.Course, error) {
	return s.findCourses(ctx, bson.M{"progress": bson.M{"$elemMatch": bson.M{"learner_id": learnerID, "completed": true}}})
}

func (s *Mongo) EnrolledCourses(ctx context.Context, learnerID primitive.ObjectID) ([]models.Course, error) {
	return s.findCourses(ctx, bson.M{"progress.learner_id": learnerID})
}

func (s *Mongo) findCourses(ctx context.Context, filter bson.M) ([]models.Course, error) {
	cursor, err := s.courses().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var courses []models.Course
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *Mongo) Transfer(ctx context.Context, req TransferRequest) (*models.Transfer, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.SenderID == req.RecipientID {
		return nil, ErrSelfTransfer
	}

	transfer := models.Transfer{
		ID:             primitive.NewObjectID(),
		IdempotencyKey: req.IdempotencyKey,
		SenderID:       req.SenderID,
		RecipientID:    req.RecipientID,
		Amount:         req.Amount,
		Description:    req.Description,
		CreatedAt:      time.Now(),
	}

	err := s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		// The unique index on idempotency_key rejects a replayed request
		// before any balance moves.
		if _, err := s.transfers().InsertOne(sc, transfer); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateTransfer
			}
			return err
		}

		debit := models.LedgerEntry{
			Type:           models.LedgerSpend,
			Amount:         req.Amount,
			Timestamp:      transfer.CreatedAt,
			Description:    req.Description,
			CounterpartyID: req.RecipientID,
			TransferID:     transfer.ID,
		}
		// The balance filter makes the sufficiency check and the debit one
		// atomic step.
		res, err := s.users().UpdateOne(sc,
			bson.M{"_id": req.SenderID, "token_balance": bson.M{"$gte": req.Amount}},
			bson.M{
				"$inc":  bson.M{"token_balance": -req.Amount},
				"$push": bson.M{"transaction_history": debit},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			if err := s.users().FindOne(sc, bson.M{"_id": req.SenderID}).Err(); err == mongo.ErrNoDocuments {
				return ErrUserNotFound
			} else if err != nil {
				return err
			}
			return ErrInsufficientBalance
		}

		credit := models.LedgerEntry{
			Type:           models.LedgerEarn,
			Amount:         req.Amount,
			Timestamp:      transfer.CreatedAt,
			Description:    req.Description,
			CounterpartyID: req.SenderID,
			TransferID:     transfer.ID,
		}
		res, err = s.users().UpdateOne(sc,
			bson.M{"_id": req.RecipientID},
			bson.M{
				"$inc":  bson.M{"token_balance": req.Amount},
				"$push": bson.M{"transaction_history": credit},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			// Aborting the transaction rolls the debit back.
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *Mongo) TransferByKey(ctx context.Context, key string) (*models.Transfer, error) {
	var transfer models.Transfer
	err := s.transfers().FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&transfer)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

func (s *Mongo) Wallet(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	var user models.User
	if err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	transactions := user.TransactionHistory
	if transactions == nil {
		transactions = []models.LedgerEntry{}
	}
	return &models.Wallet{Balance: user.TokenBalance, Transactions: transactions}, nil
}
