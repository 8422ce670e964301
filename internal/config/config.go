package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	MongoURI string
	MongoDB  string

	RedisURL string

	JWTSecret      string
	TokenMaxAgeSec int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	OTPTTL time.Duration

	UploadMaxAttempts int
	UploadRetryDelay  time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "chatwave"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	tokenMaxAge, err := strconv.Atoi(os.Getenv("TOKEN_MAX_AGE"))
	if err != nil || tokenMaxAge <= 0 {
		tokenMaxAge = 604800 // 7 days
	}

	otpTTLSec, err := strconv.Atoi(os.Getenv("OTP_TTL_SECONDS"))
	if err != nil || otpTTLSec <= 0 {
		otpTTLSec = 300
	}

	uploadAttempts, err := strconv.Atoi(os.Getenv("UPLOAD_MAX_ATTEMPTS"))
	if err != nil || uploadAttempts <= 0 {
		uploadAttempts = 3
	}

	uploadRetryMs, err := strconv.Atoi(os.Getenv("UPLOAD_RETRY_DELAY_MS"))
	if err != nil || uploadRetryMs <= 0 {
		uploadRetryMs = 500
	}

	return &Config{
		ServerPort: serverPort,

		MongoURI: mongoURI,
		MongoDB:  mongoDB,

		RedisURL: redisURL,

		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenMaxAgeSec: tokenMaxAge,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: os.Getenv("SMTP_PORT"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		OTPTTL: time.Duration(otpTTLSec) * time.Second,

		UploadMaxAttempts: uploadAttempts,
		UploadRetryDelay:  time.Duration(uploadRetryMs) * time.Millisecond,
	}, nil
}
