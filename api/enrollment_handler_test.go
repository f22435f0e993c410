package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/skillexchange/skill-exchange-backend/models"
	"github.com/skillexchange/skill-exchange-backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newEnrollmentFixture() (*store.Memory, *models.User, *models.Course) {
	st := store.NewMemory()
	learner := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Status:   models.StatusActive,
		Verified: true,
	}
	st.PutUser(learner)
	course := &models.Course{
		ID:          primitive.NewObjectID(),
		MentorID:    primitive.NewObjectID(),
		Title:       "Intro to Solidity",
		Description: "Smart contracts from scratch",
	}
	st.PutCourse(course)
	return st, learner, course
}

func postJSON(t *testing.T, handler http.HandlerFunc, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestEnrollHandler(t *testing.T) {
	st, learner, course := newEnrollmentFixture()
	handler := EnrollHandler(st)

	payload := EnrollRequest{LearnerID: learner.ID.Hex(), CourseID: course.ID.Hex()}
	rec := postJSON(t, handler, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Successfully enrolled in the course" {
		t.Errorf("message = %v", body["message"])
	}

	// Same pair again is a conflict, not a second enrollment.
	rec = postJSON(t, handler, payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("re-enroll status = %d, want 409", rec.Code)
	}

	c, _ := st.GetCourse(course.ID)
	if c.EnrolledCount() != 1 {
		t.Errorf("enrolled count = %d, want 1", c.EnrolledCount())
	}
}

func TestEnrollHandlerBadInput(t *testing.T) {
	st, _, course := newEnrollmentFixture()
	handler := EnrollHandler(st)

	rec := postJSON(t, handler, EnrollRequest{LearnerID: "not-an-id", CourseID: course.ID.Hex()})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad learner id status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, handler, EnrollRequest{LearnerID: primitive.NewObjectID().Hex(), CourseID: course.ID.Hex()})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown learner status = %d, want 404", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestUpdateProgressHandler(t *testing.T) {
	st, learner, course := newEnrollmentFixture()
	if _, err := st.Enroll(context.Background(), learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}
	handler := UpdateProgressHandler(st)

	rec := postJSON(t, handler, UpdateProgressRequest{LearnerID: learner.ID.Hex(), CourseID: course.ID.Hex(), Progress: 55})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, handler, UpdateProgressRequest{LearnerID: learner.ID.Hex(), CourseID: course.ID.Hex(), Progress: 120})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range status = %d, want 400", rec.Code)
	}

	other := primitive.NewObjectID()
	st.PutUser(&models.User{ID: other, Name: "Ravi", Email: "ravi@example.com", Status: models.StatusActive})
	rec = postJSON(t, handler, UpdateProgressRequest{LearnerID: other.Hex(), CourseID: course.ID.Hex(), Progress: 10})
	if rec.Code != http.StatusConflict {
		t.Errorf("not-enrolled status = %d, want 409", rec.Code)
	}
}

func TestGetProgressHandler(t *testing.T) {
	st, learner, course := newEnrollmentFixture()
	if _, err := st.Enroll(context.Background(), learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := st.UpdateProgress(context.Background(), learner.ID, course.ID, 40); err != nil {
		t.Fatal(err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/courses/progress/{learnerId}/{courseId}", GetProgressHandler(st))

	url := fmt.Sprintf("/courses/progress/%s/%s", learner.ID.Hex(), course.ID.Hex())
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["progress"] != float64(40) || body["completed"] != false {
		t.Errorf("body = %v, want progress 40 uncompleted", body)
	}

	url = fmt.Sprintf("/courses/progress/%s/%s", primitive.NewObjectID().Hex(), course.ID.Hex())
	req = httptest.NewRequest(http.MethodGet, url, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown learner status = %d, want 404", rec.Code)
	}
}

func TestCompleteCourseHandler(t *testing.T) {
	st, learner, course := newEnrollmentFixture()
	if _, err := st.Enroll(context.Background(), learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}
	handler := CompleteCourseHandler(st)

	payload := CompleteRequest{LearnerID: learner.ID.Hex(), CourseID: course.ID.Hex()}
	rec := postJSON(t, handler, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Repeat completion stays 200 and the counter stays put.
	rec = postJSON(t, handler, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status = %d, want 200", rec.Code)
	}
	u, _ := st.GetUser(learner.ID)
	if u.CoursesCompleted != 1 {
		t.Errorf("courses_completed = %d, want 1", u.CoursesCompleted)
	}
}

func TestCompletedCoursesHandler(t *testing.T) {
	st, learner, course := newEnrollmentFixture()
	if _, err := st.Enroll(context.Background(), learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/courses/completed/{learnerId}", CompletedCoursesHandler(st))

	req := httptest.NewRequest(http.MethodGet, "/courses/completed/"+learner.ID.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if list, ok := body["completedCourses"].([]interface{}); !ok || len(list) != 0 {
		t.Errorf("completedCourses = %v, want empty list before completion", body["completedCourses"])
	}

	if _, err := st.Complete(context.Background(), learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/courses/completed/"+learner.ID.Hex(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body = decodeBody(t, rec)
	list, ok := body["completedCourses"].([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("completedCourses = %v, want one course", body["completedCourses"])
	}
}

func TestEnrolledCoursesHandler(t *testing.T) {
	st, learner, course := newEnrollmentFixture()

	router := mux.NewRouter()
	router.HandleFunc("/courses/enrolled/{userId}", EnrolledCoursesHandler(st))

	req := httptest.NewRequest(http.MethodGet, "/courses/enrolled/"+learner.ID.Hex(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d before enrollment, want 404", rec.Code)
	}

	if _, err := st.Enroll(context.Background(), learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/courses/enrolled/"+learner.ID.Hex(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	list, ok := body["enrolledCourses"].([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("enrolledCourses = %v, want one course", body["enrolledCourses"])
	}
}
