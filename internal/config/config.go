package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list splitting

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort        string   // Application port
	DBDriver       string   // mysql, postgres or sqlite
	DBDSN          string   // Full DSN, overrides the discrete DB settings
	DBUser         string   // Database user
	DBPassword     string   // Database password
	DBHost         string   // Database host
	DBPort         string   // Database port
	DBName         string   // Database name
	SQLitePath     string   // SQLite file when DBDriver is sqlite
	JWTSecret      string   // JWT secret key
	RedisAddr      string   // Redis server address
	RedisPass      string   // Redis password
	RedisDB        int      // Redis database number
	SMTPHost       string   // SMTP relay host
	SMTPPort       int      // SMTP relay port
	SMTPUser       string   // SMTP username
	SMTPPass       string   // SMTP password
	SMTPFrom       string   // Sender address
	StripeKey      string   // Stripe secret key
	StripeCurrency string   // Charge currency
	UploadDir      string   // Root for uploaded images and avatars
	AgreementDir   string   // Root for generated lease agreements
	FrontendURL    string   // Base URL used in password reset links
	TrustedProxies []string // Proxies gin should trust
	IsProd         bool     // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		smtpPort = 587 // Submission port
	}
	return &Config{
		AppPort:        getenv("APP_PORT", "5000"),                        // Application port
		DBDriver:       strings.ToLower(getenv("DB_DRIVER", "mysql")),     // Database driver
		DBDSN:          os.Getenv("DB_DSN"),                               // DSN override
		DBUser:         os.Getenv("DB_USER"),                              // Database user
		DBPassword:     os.Getenv("DB_PASSWORD"),                          // Database password
		DBHost:         getenv("DB_HOST", "127.0.0.1"),                    // Database host
		DBPort:         os.Getenv("DB_PORT"),                              // Database port
		DBName:         os.Getenv("DB_NAME"),                              // Database name
		SQLitePath:     getenv("SQLITE_PATH", "rental.db"),                // SQLite file
		JWTSecret:      os.Getenv("JWT_SECRET"),                           // JWT secret key
		RedisAddr:      os.Getenv("REDIS_ADDR"),                           // Redis server address
		RedisPass:      os.Getenv("REDIS_PASS"),                           // Redis password
		RedisDB:        redisDB,                                           // Redis database number
		SMTPHost:       os.Getenv("SMTP_HOST"),                            // SMTP host
		SMTPPort:       smtpPort,                                          // SMTP port
		SMTPUser:       os.Getenv("SMTP_USER"),                            // SMTP user
		SMTPPass:       os.Getenv("SMTP_PASS"),                            // SMTP password
		SMTPFrom:       getenv("SMTP_FROM", os.Getenv("SMTP_USER")),       // Sender address
		StripeKey:      os.Getenv("STRIPE_SECRET_KEY"),                    // Stripe secret key
		StripeCurrency: getenv("STRIPE_CURRENCY", "usd"),                  // Charge currency
		UploadDir:      getenv("UPLOAD_DIR", "public/uploads"),            // Upload root
		AgreementDir:   getenv("AGREEMENT_DIR", "storage/agreements"),     // Agreement root, not served statically
		FrontendURL:    getenv("FRONTEND_URL", "http://localhost:3000"),   // Frontend base URL
		TrustedProxies: splitList(getenv("TRUSTED_PROXIES", "127.0.0.1")), // Trusted proxies
		IsProd:         os.Getenv("IS_PROD") == "true",                    // Is production environment
	}
}

// getenv returns the variable or fallback when unset
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma separated variable, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
