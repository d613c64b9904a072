package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
	CONTEXT_SESSION_EMAIL_KEY        ContextKey = "session_email"
	CONTEXT_CLIENT_IP_KEY            ContextKey = "client_ip"
)

const (
	APP_ENV_PRODUCTION  = "production"
	APP_ENV_DEVELOPMENT = "development"
	APP_ENV_LOCAL       = "local"
)

const (
	DEFAULT_APP_ENDPOINT_PREFIX = "api"
	DEFAULT_APP_VERSION         = "v1"
)
