package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// MailConfig holds SMTP settings for registration notices.  An empty Host
// turns mail delivery off.
type MailConfig struct {
	Host       string `env:"SMTP_HOST"`
	Port       int    `env:"SMTP_PORT" env-default:"587"`
	User       string `env:"SMTP_USER"`
	Pass       string `env:"SMTP_PASS"`
	From       string `env:"SMTP_FROM"`
	Secure     bool   `env:"SMTP_SECURE" env-default:"false"` // implicit TLS (port 465)
	AdminEmail string `env:"ADMIN_EMAIL"`                     // receives a copy of every notice
}

// Enabled reports whether enough is configured to send mail.
func (m MailConfig) Enabled() bool { return m.Host != "" }

// Sender returns From, falling back to User.
func (m MailConfig) Sender() string {
	if m.From != "" {
		return m.From
	}
	return m.User
}

// LoadMailConfig reads MailConfig from the environment.
func LoadMailConfig() (MailConfig, error) {
	var cfg MailConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return MailConfig{}, fmt.Errorf("read mail config: %w", err)
	}
	return cfg, nil
}
