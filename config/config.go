package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	MongoURI           string
	DBName             string
	Port               string
	SendGridAPIKey     string
	EmailFromName      string
	EmailFromAddress   string
	AWSRegion          string
	AWSBucketName      string
	UploadDir          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values or system environment variables")
	}

	MongoURI = os.Getenv("MONGO_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017/"
	}

	DBName = os.Getenv("DB_NAME")
	if DBName == "" {
		DBName = "skillexchange"
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "3500"
	}

	SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
	EmailFromName = os.Getenv("EMAIL_FROM_NAME")
	if EmailFromName == "" {
		EmailFromName = "Skill Exchange"
	}
	EmailFromAddress = os.Getenv("EMAIL_FROM_ADDRESS")
	if EmailFromAddress == "" {
		EmailFromAddress = "no-reply@skillexchange.app"
	}

	AWSRegion = os.Getenv("AWS_REGION")
	if AWSRegion == "" {
		AWSRegion = "ap-south-1"
	}
	// When AWS_BUCKET_NAME is empty, course media stays on local disk under UploadDir.
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")

	UploadDir = os.Getenv("UPLOAD_DIR")
	if UploadDir == "" {
		UploadDir = "uploads"
	}

	GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")
	if GoogleRedirectURL == "" {
		GoogleRedirectURL = "http://localhost:3500/Auth/google/callback"
	}
}
