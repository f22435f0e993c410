package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressEntry tracks one learner inside a course. An entry existing means
// the learner is enrolled; Percent runs 0-100 and Completed is terminal.
type ProgressEntry struct {
	LearnerID   primitive.ObjectID `bson:"learner_id" json:"learner_id"`
	Percent     int                `bson:"percent" json:"percent"`
	Completed   bool               `bson:"completed" json:"completed"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Course represents an uploaded course with its media paths
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MentorID    primitive.ObjectID `bson:"mentor_id" json:"-"` // mentor identity is not exposed on course reads
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Video       string             `bson:"video" json:"video"`
	Progress    []ProgressEntry    `bson:"progress,omitempty" json:"progress,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// EnrolledCount returns the number of learners enrolled in the course.
func (c *Course) EnrolledCount() int {
	return len(c.Progress)
}

// ProgressFor returns the progress entry for a learner, or nil when the
// learner is not enrolled.
func (c *Course) ProgressFor(learnerID primitive.ObjectID) *ProgressEntry {
	for i := range c.Progress {
		if c.Progress[i].LearnerID == learnerID {
			return &c.Progress[i]
		}
	}
	return nil
}
