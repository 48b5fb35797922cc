package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	AppPort  string
	AppEnv   string
	BaseURL  string
	Timezone string

	JWTSecret string

	Webpay   Webpay
	Oneclick Oneclick
}

// Webpay holds the Webpay Plus store settings.
type Webpay struct {
	Environment  string
	CommerceCode string
	APIKey       string
}

// Oneclick holds the Oneclick Mall store settings. ChildCommerceCode is the
// store commerce that receives each mall detail.
type Oneclick struct {
	Environment       string
	CommerceCode      string
	ChildCommerceCode string
	APIKey            string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    getEnv("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),
		Timezone:   getEnv("STORE_TIMEZONE", "America/Santiago"),
		JWTSecret:  os.Getenv("SECRET_KEY"),
		Webpay: Webpay{
			Environment:  getEnv("WEBPAY_ENVIRONMENT", "TEST"),
			CommerceCode: os.Getenv("WEBPAY_COMMERCE_CODE"),
			APIKey:       os.Getenv("WEBPAY_API_KEY"),
		},
		Oneclick: Oneclick{
			Environment:       getEnv("ONECLICK_ENVIRONMENT", "TEST"),
			CommerceCode:      os.Getenv("ONECLICK_COMMERCE_CODE"),
			ChildCommerceCode: os.Getenv("ONECLICK_CHILD_COMMERCE_CODE"),
			APIKey:            os.Getenv("ONECLICK_API_KEY"),
		},
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
