package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/skillexchange/skill-exchange-backend/models"
	"github.com/skillexchange/skill-exchange-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UpdateProfileRequest carries the partially-updatable profile fields.
type UpdateProfileRequest struct {
	Name          string   `json:"name"`
	MobileNo      string   `json:"mobile_no"`
	WalletAddress string   `json:"wallet_address"`
	Skills        []string `json:"skills"`
	Gender        string   `json:"gender"`
	DOB           string   `json:"dob"`
}

// RateMentorRequest carries a learner's rating of a mentor.
type RateMentorRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// GetUserHandler returns a user profile, password excluded.
func GetUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, nil, "Invalid user ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := usersCollection().FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, nil, "User not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, nil, "Database error", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, user)
}

// UpdateProfileHandler updates only the fields present in the request.
func UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Update Profile API]")

	if r.Method != http.MethodPut {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["userId"])
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.MobileNo != "" {
		if !IsValidMobile(req.MobileNo) {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("%s is not a valid mobile number", req.MobileNo), http.StatusBadRequest)
			return
		}
		set["mobile_no"] = req.MobileNo
	}
	if req.WalletAddress != "" {
		set["wallet_address"] = req.WalletAddress
	}
	if req.Skills != nil {
		set["skills"] = req.Skills
	}
	if req.Gender != "" {
		if !IsValidGender(req.Gender) {
			utils.RespondError(w, &logMessageBuilder, "Gender must be male, female or other", http.StatusBadRequest)
			return
		}
		set["gender"] = strings.ToLower(req.Gender)
	}
	if req.DOB != "" {
		set["dob"] = req.DOB
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := usersCollection()
	res, err := collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondError(w, &logMessageBuilder, "User not found", http.StatusNotFound)
		return
	}

	var user models.User
	if err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to load updated profile", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Profile updated successfully")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// DashboardHandler returns the condensed profile used by the dashboard page.
func DashboardHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, nil, "Invalid user ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := usersCollection().FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, nil, "User not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, nil, "Database error", http.StatusInternalServerError)
		}
		return
	}

	skills := user.Skills
	if skills == nil {
		skills = []string{}
	}
	utils.RespondJSON(w, http.StatusOK, models.Dashboard{
		Name:             user.Name,
		Email:            user.Email,
		TokenBalance:     user.TokenBalance,
		Skills:           skills,
		CoursesCompleted: user.CoursesCompleted,
		CoursesTaught:    user.CoursesTaught,
	})
}

// RateMentorHandler records the authenticated user's 1-5 rating of a mentor
// and recomputes the mentor's average.
func RateMentorHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Rate Mentor API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raterIDStr, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}
	raterID, err := primitive.ObjectIDFromHex(raterIDStr)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid user ID", http.StatusUnauthorized)
		return
	}

	mentorID, err := primitive.ObjectIDFromHex(mux.Vars(r)["mentorId"])
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid mentor ID", http.StatusBadRequest)
		return
	}

	var req RateMentorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		utils.RespondError(w, &logMessageBuilder, "Rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := usersCollection()
	rating := models.Rating{UserID: raterID, Rating: req.Rating, Review: req.Review, Date: time.Now()}
	res, err := collection.UpdateOne(ctx, bson.M{"_id": mentorID}, bson.M{"$push": bson.M{"ratings": rating}})
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to save rating", http.StatusInternalServerError)
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondError(w, &logMessageBuilder, "Mentor not found", http.StatusNotFound)
		return
	}

	var mentor models.User
	if err := collection.FindOne(ctx, bson.M{"_id": mentorID}).Decode(&mentor); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to load mentor", http.StatusInternalServerError)
		return
	}

	var sum int
	for _, rt := range mentor.Ratings {
		sum += rt.Rating
	}
	average := float64(sum) / float64(len(mentor.Ratings))
	if _, err := collection.UpdateOne(ctx, bson.M{"_id": mentorID}, bson.M{"$set": bson.M{"average_rating": average}}); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to update average rating", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Rating recorded")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Rating submitted successfully",
		"average_rating": average,
	})
}
