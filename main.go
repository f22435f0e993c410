package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/skillexchange/skill-exchange-backend/api"
	"github.com/skillexchange/skill-exchange-backend/config"
	"github.com/skillexchange/skill-exchange-backend/store"
	"github.com/skillexchange/skill-exchange-backend/utils"
)

func main() {
	config.LoadConfig()

	// Initialize MongoDB
	if err := utils.ConnectMongo(config.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := utils.EnsureIndexes(ctx, config.DBName); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	st := store.NewMongo(utils.Client, config.DBName)

	router := mux.NewRouter()

	// Auth
	router.HandleFunc("/Auth/register", api.RegisterHandler).Methods("POST")
	router.HandleFunc("/Auth/login", api.LoginHandler).Methods("POST")
	router.HandleFunc("/Auth/generate-otp", api.GenerateOTPHandler).Methods("POST")
	router.HandleFunc("/Auth/verify-otp", api.VerifyOTPHandler).Methods("POST")
	router.HandleFunc("/Auth/reset-password", api.ResetPasswordHandler).Methods("POST")
	router.HandleFunc("/Auth/google/login", api.GoogleLoginHandler).Methods("GET")
	router.HandleFunc("/Auth/google/callback", api.GoogleCallbackHandler).Methods("GET")

	// Users
	router.HandleFunc("/User/dashboard/{id}", api.DashboardHandler).Methods("GET")
	router.HandleFunc("/User/profile/{userId}", api.UpdateProfileHandler).Methods("PUT")
	router.HandleFunc("/User/rate/{mentorId}", api.AuthMiddleware(api.RateMentorHandler)).Methods("POST")
	router.HandleFunc("/User/{id}", api.GetUserHandler).Methods("GET")

	// Courses
	router.HandleFunc("/courses/upload", api.UploadCourseHandler).Methods("POST")
	router.HandleFunc("/courses/getall", api.GetAllCoursesHandler).Methods("GET")
	router.HandleFunc("/courses/enroll", api.EnrollHandler(st)).Methods("POST")
	router.HandleFunc("/courses/updateProgress", api.UpdateProgressHandler(st)).Methods("POST")
	router.HandleFunc("/courses/getProgress/{learnerId}/{courseId}", api.GetProgressHandler(st)).Methods("GET")
	router.HandleFunc("/courses/complete", api.CompleteCourseHandler(st)).Methods("POST")
	router.HandleFunc("/courses/completed/{learnerId}", api.CompletedCoursesHandler(st)).Methods("GET")
	router.HandleFunc("/courses/enrolled/{userId}", api.EnrolledCoursesHandler(st)).Methods("GET")
	router.HandleFunc("/courses/mentor/{mentorId}", api.MentorCoursesHandler).Methods("GET")
	router.HandleFunc("/courses/{id}", api.GetCourseHandler).Methods("GET")

	// Wallet
	router.HandleFunc("/wallet", api.AuthMiddleware(api.WalletHandler(st))).Methods("GET")
	router.HandleFunc("/wallet/transfer", api.AuthMiddleware(api.TransferHandler(st))).Methods("POST")

	// Mentorship
	router.HandleFunc("/mentorship/add", api.AddMentorshipHandler).Methods("POST")
	router.HandleFunc("/mentorship/getallmentor", api.GetAllMentorsHandler).Methods("GET")
	router.HandleFunc("/mentorship/getMentor/{id}", api.GetMentorHandler).Methods("GET")
	router.HandleFunc("/mentorship/notifyMentor", api.NotifyMentorHandler).Methods("POST")

	// Serve locally stored course media
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(config.UploadDir))))

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(utils.LatencyMiddleware(router))

	port := config.Port
	fmt.Printf("Server starting on port %s...\n", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
