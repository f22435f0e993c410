package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/skillexchange/skill-exchange-backend/config"
	"github.com/skillexchange/skill-exchange-backend/models"
	"github.com/skillexchange/skill-exchange-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func coursesCollection() *mongo.Collection {
	return utils.GetCollection(config.DBName, "courses")
}

// courseDetails is the public course view: media paths resolved, mentor id
// and per-learner progress omitted.
type courseDetails struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	Thumbnail   string             `json:"thumbnail"`
	Video       string             `json:"video"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toCourseDetails(ctx context.Context, c *models.Course) courseDetails {
	return courseDetails{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Image:       utils.ResolveMediaURL(ctx, c.Image),
		Thumbnail:   utils.ResolveMediaURL(ctx, c.Thumbnail),
		Video:       utils.ResolveMediaURL(ctx, c.Video),
		CreatedAt:   c.CreatedAt,
	}
}

// storeCourseMedia validates and persists one uploaded media file, to S3 when
// a bucket is configured, otherwise to local disk under the upload dir.
func storeCourseMedia(r *http.Request, field, kind string) (string, error) {
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return "", fmt.Errorf("%s file is required", field)
	}
	fileHeader := files[0]

	switch kind {
	case "image":
		if !utils.IsAllowedImage(fileHeader.Filename) {
			return "", fmt.Errorf("only image files are allowed for %s", field)
		}
	case "video":
		if !utils.IsAllowedVideo(fileHeader.Filename) {
			return "", fmt.Errorf("only video files are allowed for %s", field)
		}
	}

	if config.AWSBucketName != "" {
		file, err := fileHeader.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open uploaded file: %w", err)
		}
		defer file.Close()

		ext := filepath.Ext(fileHeader.Filename)
		objectKey := fmt.Sprintf("courses/%ss/%s%s", kind, uuid.New().String(), ext)
		return utils.UploadFileToS3(r.Context(), file, objectKey, fileHeader.Header.Get("Content-Type"))
	}

	dir := filepath.Join(config.UploadDir, kind+"s")
	return utils.SaveUploadedFile(fileHeader, dir)
}

// UploadCourseHandler creates a course from a multipart form with image,
// thumbnail and video files.
func UploadCourseHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Upload Course API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse multipart form (max 100MB, the video dominates)
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	description := r.FormValue("description")
	mentorIDStr := r.FormValue("mentorId")
	if title == "" || description == "" || mentorIDStr == "" {
		utils.RespondError(w, &logMessageBuilder, "Title, Description, and Mentor ID are required", http.StatusBadRequest)
		return
	}

	mentorID, err := primitive.ObjectIDFromHex(mentorIDStr)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid mentor ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := usersCollection().FindOne(ctx, bson.M{"_id": mentorID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, &logMessageBuilder, "Mentor not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, &logMessageBuilder, "Database error", http.StatusInternalServerError)
		}
		return
	}

	imagePath, err := storeCourseMedia(r, "image", "image")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}
	thumbnailPath, err := storeCourseMedia(r, "thumbnail", "image")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}
	videoPath, err := storeCourseMedia(r, "video", "video")
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}

	course := models.Course{
		ID:          primitive.NewObjectID(),
		MentorID:    mentorID,
		Title:       title,
		Description: description,
		Image:       imagePath,
		Thumbnail:   thumbnailPath,
		Video:       videoPath,
		CreatedAt:   time.Now(),
	}

	if _, err := coursesCollection().InsertOne(ctx, course); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to create course", http.StatusInternalServerError)
		return
	}

	if _, err := usersCollection().UpdateOne(ctx, bson.M{"_id": mentorID}, bson.M{"$inc": bson.M{"courses_taught": 1}}); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to bump courses_taught: %v", err))
	}

	utils.AddToLogMessage(&logMessageBuilder, "Course uploaded successfully")
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Course uploaded successfully",
		"course":  toCourseDetails(r.Context(), &course),
	})
}

// GetAllCoursesHandler lists course details for the catalog page.
func GetAllCoursesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := coursesCollection().Find(ctx, bson.M{}, findOptions)
	if err != nil {
		utils.RespondError(w, nil, "Failed to fetch courses", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var courses []models.Course
	if err := cursor.All(ctx, &courses); err != nil {
		utils.RespondError(w, nil, "Failed to decode courses", http.StatusInternalServerError)
		return
	}

	details := make([]courseDetails, 0, len(courses))
	for i := range courses {
		details = append(details, toCourseDetails(r.Context(), &courses[i]))
	}
	utils.RespondJSON(w, http.StatusOK, details)
}

// GetCourseHandler returns a single course by id.
func GetCourseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	courseID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, nil, "Invalid course ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var course models.Course
	if err := coursesCollection().FindOne(ctx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, nil, "Course not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, nil, "Database error", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, toCourseDetails(r.Context(), &course))
}

// MentorCoursesHandler lists a mentor's courses with their enrolled counts.
func MentorCoursesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mentorID, err := primitive.ObjectIDFromHex(mux.Vars(r)["mentorId"])
	if err != nil {
		utils.RespondError(w, nil, "Invalid mentor ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := coursesCollection().Find(ctx, bson.M{"mentor_id": mentorID})
	if err != nil {
		utils.RespondError(w, nil, "Failed to fetch courses", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var courses []models.Course
	if err := cursor.All(ctx, &courses); err != nil {
		utils.RespondError(w, nil, "Failed to decode courses", http.StatusInternalServerError)
		return
	}
	if len(courses) == 0 {
		utils.RespondError(w, nil, "No courses found for this mentor", http.StatusNotFound)
		return
	}

	type mentorCourse struct {
		Title                 string `json:"title"`
		Description           string `json:"description"`
		EnrolledLearnersCount int    `json:"enrolled_learners_count"`
	}
	out := make([]mentorCourse, 0, len(courses))
	for i := range courses {
		out = append(out, mentorCourse{
			Title:                 courses[i].Title,
			Description:           courses[i].Description,
			EnrolledLearnersCount: courses[i].EnrolledCount(),
		})
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"courses": out})
}
