package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	DirectoryAdminURL     string `envconfig:"directory_admin_url" required:"true"`
	DirectoryTokenURL     string `envconfig:"directory_token_url"`
	DirectoryClientID     string `envconfig:"directory_client_id"`
	DirectoryClientSecret string `envconfig:"directory_client_secret"`

	InvitationLifetime string `envconfig:"invitation_lifetime" default:"24h"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	AuthenticationEnabled bool     `envconfig:"authentication_enabled" default:"false"`
	OIDCIssuer            string   `envconfig:"oidc_issuer"`
	JWKSURL               string   `envconfig:"jwks_url"`
	AllowedSubjects       []string `envconfig:"allowed_subjects"`
	RequiredScope         string   `envconfig:"required_scope"`

	ModuleOverlayFile string `envconfig:"module_overlay_file"`

	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins"`

	SessionCacheSize int           `envconfig:"session_cache_size" default:"1024"`
	SessionCacheTTL  time.Duration `envconfig:"session_cache_ttl" default:"30s"`

	SignInURL      string `envconfig:"sign_in_url" default:"/signin"`
	AccessErrorURL string `envconfig:"access_error_url" default:"/access-error"`
	RestrictedURL  string `envconfig:"restricted_url" default:"/restricted"`
}
