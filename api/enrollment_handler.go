package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skillexchange/skill-exchange-backend/models"
	"github.com/skillexchange/skill-exchange-backend/store"
	"github.com/skillexchange/skill-exchange-backend/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnrollRequest represents the payload for course enrollment
type EnrollRequest struct {
	LearnerID string `json:"learnerId"`
	CourseID  string `json:"courseId"`
}

// UpdateProgressRequest represents the payload for a progress update
type UpdateProgressRequest struct {
	LearnerID string `json:"learnerId"`
	CourseID  string `json:"courseId"`
	Progress  int    `json:"progress"`
}

// CompleteRequest represents the payload for marking a course completed
type CompleteRequest struct {
	LearnerID string `json:"learnerId"`
	CourseID  string `json:"courseId"`
}

// respondStoreError maps store sentinel errors onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, logger *strings.Builder, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		utils.RespondError(w, logger, "Learner not found", http.StatusNotFound)
	case errors.Is(err, store.ErrCourseNotFound):
		utils.RespondError(w, logger, "Course not found", http.StatusNotFound)
	case errors.Is(err, store.ErrAlreadyEnrolled):
		utils.RespondError(w, logger, "You are already enrolled in this course", http.StatusConflict)
	case errors.Is(err, store.ErrNotEnrolled):
		utils.RespondError(w, logger, "Learner is not enrolled in this course", http.StatusConflict)
	case errors.Is(err, store.ErrProgressNotFound):
		utils.RespondError(w, logger, "Progress not found for this course", http.StatusNotFound)
	case errors.Is(err, store.ErrCourseCompleted):
		utils.RespondError(w, logger, "Course is already completed", http.StatusConflict)
	case errors.Is(err, store.ErrInvalidProgress):
		utils.RespondError(w, logger, "Progress must be between 0 and 100", http.StatusBadRequest)
	case errors.Is(err, store.ErrInvalidAmount):
		utils.RespondError(w, logger, "Amount must be greater than zero", http.StatusBadRequest)
	case errors.Is(err, store.ErrSelfTransfer):
		utils.RespondError(w, logger, "Cannot transfer tokens to yourself", http.StatusBadRequest)
	case errors.Is(err, store.ErrInsufficientBalance):
		utils.RespondError(w, logger, "Insufficient token balance", http.StatusUnprocessableEntity)
	default:
		utils.RespondError(w, logger, "Internal server error", http.StatusInternalServerError)
	}
}

func parsePair(learnerIDStr, courseIDStr string) (primitive.ObjectID, primitive.ObjectID, error) {
	learnerID, err := primitive.ObjectIDFromHex(learnerIDStr)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fmt.Errorf("invalid learner ID")
	}
	courseID, err := primitive.ObjectIDFromHex(courseIDStr)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fmt.Errorf("invalid course ID")
	}
	return learnerID, courseID, nil
}

// EnrollHandler enrolls a learner in a course, keeping the course-side and
// user-side records in step.
func EnrollHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logMessageBuilder strings.Builder
		defer func() {
			fmt.Println(logMessageBuilder.String())
		}()
		utils.AddToLogMessage(&logMessageBuilder, "[Enroll API]")

		if r.Method != http.MethodPost {
			utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req EnrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
			return
		}

		learnerID, courseID, err := parsePair(req.LearnerID, req.CourseID)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
			return
		}

		course, err := st.Enroll(r.Context(), learnerID, courseID)
		if err != nil {
			respondStoreError(w, &logMessageBuilder, err)
			return
		}

		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Learner %s enrolled in course %s", req.LearnerID, req.CourseID))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Successfully enrolled in the course",
			"course":  course,
		})
	}
}

// UpdateProgressHandler sets the percent-complete for an enrolled pair.
func UpdateProgressHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logMessageBuilder strings.Builder
		defer func() {
			fmt.Println(logMessageBuilder.String())
		}()
		utils.AddToLogMessage(&logMessageBuilder, "[Update Progress API]")

		if r.Method != http.MethodPost {
			utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req UpdateProgressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
			return
		}

		learnerID, courseID, err := parsePair(req.LearnerID, req.CourseID)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
			return
		}

		entry, err := st.UpdateProgress(r.Context(), learnerID, courseID, req.Progress)
		if err != nil {
			respondStoreError(w, &logMessageBuilder, err)
			return
		}

		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Progress for learner %s course %s set to %d", req.LearnerID, req.CourseID, req.Progress))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "Progress updated successfully",
			"progress": entry,
		})
	}
}

// GetProgressHandler returns the percent-complete for a pair.
func GetProgressHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		vars := mux.Vars(r)
		learnerID, courseID, err := parsePair(vars["learnerId"], vars["courseId"])
		if err != nil {
			utils.RespondError(w, nil, err.Error(), http.StatusBadRequest)
			return
		}

		entry, err := st.Progress(r.Context(), learnerID, courseID)
		if err != nil {
			respondStoreError(w, nil, err)
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"progress": entry.Percent, "completed": entry.Completed})
	}
}

// CompleteCourseHandler marks a course completed for a learner. Completion is
// terminal; repeat calls return the already-completed course.
func CompleteCourseHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logMessageBuilder strings.Builder
		defer func() {
			fmt.Println(logMessageBuilder.String())
		}()
		utils.AddToLogMessage(&logMessageBuilder, "[Complete Course API]")

		if r.Method != http.MethodPost {
			utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
			return
		}

		learnerID, courseID, err := parsePair(req.LearnerID, req.CourseID)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
			return
		}

		course, err := st.Complete(r.Context(), learnerID, courseID)
		if err != nil {
			respondStoreError(w, &logMessageBuilder, err)
			return
		}

		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Course %s completed by learner %s", req.CourseID, req.LearnerID))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Course marked as completed",
			"course":  course,
		})
	}
}

// CompletedCoursesHandler lists courses the learner has completed.
func CompletedCoursesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		learnerID, err := primitive.ObjectIDFromHex(mux.Vars(r)["learnerId"])
		if err != nil {
			utils.RespondError(w, nil, "invalid learner ID", http.StatusBadRequest)
			return
		}

		courses, err := st.CompletedCourses(r.Context(), learnerID)
		if err != nil {
			respondStoreError(w, nil, err)
			return
		}
		if courses == nil {
			courses = []models.Course{}
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"completedCourses": courses})
	}
}

// EnrolledCoursesHandler lists courses the learner is enrolled in.
func EnrolledCoursesHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
		if err != nil {
			utils.RespondError(w, nil, "invalid user ID", http.StatusBadRequest)
			return
		}

		courses, err := st.EnrolledCourses(r.Context(), userID)
		if err != nil {
			respondStoreError(w, nil, err)
			return
		}
		if len(courses) == 0 {
			utils.RespondError(w, nil, "No courses found for this user", http.StatusNotFound)
			return
		}

		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"enrolledCourses": courses})
	}
}
