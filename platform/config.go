package platform

import (
	"os"
	"strconv"
)

// Config collects everything read from the environment at startup.
type Config struct {
	Port string

	SQLHost     string
	SQLPort     string
	SQLUser     string
	SQLPassword string
	SQLDBName   string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	AccessSecret string

	DocsDir        string
	FormsDir       string
	FilledFormsDir string

	MaxToolRounds int

	SeedDB bool

	SMTP SMTPConfig
}

// SMTPConfig holds the mail relay settings for the admin digest.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	AdminTo  string
}

func LoadConfig() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		SQLHost:     os.Getenv("SQL_HOST"),
		SQLPort:     getenv("SQL_PORT", "5432"),
		SQLUser:     os.Getenv("SQL_USER"),
		SQLPassword: os.Getenv("SQL_PASSWORD"),
		SQLDBName:   os.Getenv("SQL_DBNAME"),

		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMModel:   getenv("LLM_MODEL", "gpt-4o"),

		AccessSecret: os.Getenv("ACCESS_SECRET"),

		DocsDir:        getenv("DOCS_DIR", "./docs"),
		FormsDir:       getenv("FORMS_DIR", "./forms"),
		FilledFormsDir: getenv("FILLED_FORMS_DIR", "./filled_forms"),

		MaxToolRounds: getenvInt("AGENT_MAX_TOOL_ROUNDS", 8),

		SeedDB: os.Getenv("SEED_DB") == "true",

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			AdminTo:  os.Getenv("ADMIN_EMAIL"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
