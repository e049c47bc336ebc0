package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Port     string `envconfig:"port" default:"8080"`
	LogLevel string `envconfig:"log_level" default:"info"`

	// Record store (document database REST boundary).
	StoreBaseURL     string `envconfig:"store_base_url" default:"http://localhost:8089/v1"`
	FreeCollection   string `envconfig:"free_collection" default:"free_enquiries"`
	PaidCollection   string `envconfig:"paid_collection" default:"paid_enquiries"`
	AdminsCollection string `envconfig:"admins_collection" default:"admins"`

	// Identity provider.
	IdentityURL    string `envconfig:"identity_url" default:"https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"`
	IdentityAPIKey string `envconfig:"identity_api_key"`

	// Session tokens. The role check against the admins collection is
	// advisory unless AdminRoleEnforce is set.
	JWTSecret        string        `envconfig:"jwt_secret" default:"enquiry_admin_dev_secret"`
	SessionTTL       time.Duration `envconfig:"session_ttl" default:"12h"`
	AdminRoleEnforce bool          `envconfig:"admin_role_enforce" default:"false"`

	// Outbound notification webhook, fired on enquiry creation.
	WebhookURL    string `envconfig:"webhook_url" default:"https://httpbin.org/post"`
	WebhookSecret string `envconfig:"webhook_secret" default:"enquiry_webhook_secret"`

	// DashboardURL is carried in webhook payloads as the originating page.
	DashboardURL string `envconfig:"dashboard_url" default:"http://localhost:3000"`

	HTTPTimeout   time.Duration `envconfig:"http_timeout" default:"30s"`
	RetryAttempts int           `envconfig:"retry_attempts" default:"3"`

	CORSOrigins []string `envconfig:"cors_origins" default:"http://localhost:3000"`
}

func Load() (*Config, error) {
	// .env is optional; real environments set variables directly.
	godotenv.Load()

	var c Config
	if err := envconfig.Process("enquiry", &c); err != nil {
		return nil, errors.WithStack(err)
	}
	return &c, nil
}
