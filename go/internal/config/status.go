package config

import "github.com/mcdev12/mailagent/go/internal/models"

// Status is the secret-free view of the configuration shown to users.
type Status struct {
	ModelKeySet  bool          `json:"model_key_set"`
	ModelName    string        `json:"model_name"`
	SMTPEmailSet bool          `json:"smtp_email_set"`
	SMTPHost     string        `json:"smtp_host"`
	DeliveryMode string        `json:"delivery_mode"`
	Tones        []models.Tone `json:"tones"`
	Languages    []string      `json:"languages"`
	DefaultTone  models.Tone   `json:"default_tone"`
	DefaultLang  string        `json:"default_language"`
}

// StatusOf builds the display status.
func StatusOf(cfg Config, catalog *StyleCatalog) Status {
	modelName := cfg.LLM.ModelName
	if modelName == "" {
		modelName = "not set"
	}
	return Status{
		ModelKeySet:  cfg.LLM.Configured(),
		ModelName:    modelName,
		SMTPEmailSet: cfg.SMTP.Email != "",
		SMTPHost:     cfg.SMTP.Host,
		DeliveryMode: cfg.DeliveryMode,
		Tones:        models.AllTones(),
		Languages:    catalog.Languages,
		DefaultTone:  catalog.DefaultTone,
		DefaultLang:  catalog.DefaultLanguage,
	}
}
