package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/skillexchange/skill-exchange-backend/config"
	"github.com/skillexchange/skill-exchange-backend/models"
	"github.com/skillexchange/skill-exchange-backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func mentorshipsCollection() *mongo.Collection {
	return utils.GetCollection(config.DBName, "mentorships")
}

// AddMentorshipRequest represents the payload for listing a mentor
type AddMentorshipRequest struct {
	MentorID string `json:"mentorId"`
	Name     string `json:"name"`
	Token    int64  `json:"token"`
}

// NotifyMentorRequest carries the client's on-chain payment notification.
// The platform ledger is never credited from this path; the chain and the
// in-app token balance stay separate systems.
type NotifyMentorRequest struct {
	TransactionHash string `json:"transactionHash"`
	MentorAddress   string `json:"mentorAddress"`
}

// AddMentorshipHandler lists a mentor with a display name and session rate.
func AddMentorshipHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Add Mentorship API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AddMentorshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.MentorID == "" {
		utils.RespondError(w, &logMessageBuilder, "mentorId is required", http.StatusBadRequest)
		return
	}

	mentorID, err := primitive.ObjectIDFromHex(req.MentorID)
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

	mentorship := models.Mentorship{
		ID:       primitive.NewObjectID(),
		MentorID: mentorID,
		Name:     req.Name,
		Token:    req.Token,
	}
	if _, err := mentorshipsCollection().InsertOne(ctx, mentorship); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to save mentorship", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Mentorship details added")
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Mentorship details added successfully",
		"mentorship": mentorship,
	})
}

// GetAllMentorsHandler lists every mentorship record.
func GetAllMentorsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := mentorshipsCollection().Find(ctx, bson.M{})
	if err != nil {
		utils.RespondError(w, nil, "Failed to fetch mentorships", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var mentorships []models.Mentorship
	if err := cursor.All(ctx, &mentorships); err != nil {
		utils.RespondError(w, nil, "Failed to decode mentorships", http.StatusInternalServerError)
		return
	}
	if mentorships == nil {
		mentorships = []models.Mentorship{}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"mentorship": mentorships})
}

// GetMentorHandler returns the mentor's full user profile. The original
// system reads mentors from the users collection, not the mentorship list.
func GetMentorHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mentorID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, nil, "Invalid mentor ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mentor models.User
	if err := usersCollection().FindOne(ctx, bson.M{"_id": mentorID}).Decode(&mentor); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, nil, "Mentorship details not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, nil, "Database error", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"mentorship": mentor})
}

// NotifyMentorHandler emails a mentor that an on-chain mentorship payment
// completed, looked up by wallet address.
func NotifyMentorHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Notify Mentor API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req NotifyMentorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TransactionHash == "" || req.MentorAddress == "" {
		utils.RespondError(w, &logMessageBuilder, "transactionHash and mentorAddress are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var mentor models.User
	if err := usersCollection().FindOne(ctx, bson.M{"wallet_address": req.MentorAddress}).Decode(&mentor); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, &logMessageBuilder, "Mentor not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, &logMessageBuilder, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if err := utils.SendMentorNotification(mentor.Name, mentor.Email, req.TransactionHash); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to send email", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Mentor %s notified of transaction %s", mentor.Email, req.TransactionHash))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully to mentor"})
}
