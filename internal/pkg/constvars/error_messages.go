package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"min":      "must be at least %s characters long",
	"max":      "maximum at %s characters long",
	"len":      "must be %s characters long",
	"uuid":     "must be a valid UUID",
	"jwt":      "must be a valid token",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min": true,
	"max": true,
	"len": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotLoggedIn                   = "your session ended, please login again"
	ErrClientMagicLinkInvalid              = "link expired or invalid, request a new one"
	ErrClientTooManyRequests               = "too many requests, please try again later"
	ErrClientRouteNotFound                 = "the requested resource does not exist"
)

// Error messages for developers
const (
	ErrDevInvalidInput           = "invalid input"
	ErrDevValidationFailed       = "validation failed"
	ErrDevCannotParseJSON        = "cannot parse JSON"
	ErrDevCannotMarshalJSON      = "cannot marshal JSON"
	ErrDevServerDeadlineExceeded = "server deadline exceeded"
	ErrDevPanicRecovered         = "panic recovered: %v"

	ErrDevTokenInvalidSignature = "token signature is invalid"
	ErrDevTokenExpired          = "token has expired"
	ErrDevTokenAudienceMismatch = "token audience or issuer mismatch"
	ErrDevTokenSign             = "failed to sign token"
	ErrDevTokenWrongKind        = "token kind is %q, expected %q"
	ErrDevTokenMissingLinkID    = "token carries no link id"
	ErrDevSessionCookieMissing  = "session cookie missing"

	ErrDevMagicLinkNotFound    = "magic link record not found"
	ErrDevMagicLinkAlreadyUsed = "magic link already consumed"
	ErrDevMagicLinkExpired     = "magic link expired"
	ErrDevMagicLinkInvalid     = "magic link token invalid"
	ErrDevMagicLinkBuildURL    = "failed to build magic link URL"

	ErrDevRateLimitExceeded = "rate limit exceeded for %s"

	ErrDevDBFailedToInsertData  = "failed to insert data"
	ErrDevDBFailedToUpdateData  = "failed to update data"
	ErrDevDBFailedToFindData    = "failed to find data"
	ErrDevDBFailedToDeleteData  = "failed to delete data"
	ErrDevDBFailedToIterateData = "failed to iterate dataset"

	ErrDevRedisSetData    = "failed to set data to redis"
	ErrDevRedisDeleteData = "failed to delete data from redis"
	ErrDevRedisLock       = "failed to acquire redis lock %s"

	ErrDevMinioFailedToCreateObject = "failed to create object in bucket %s"

	ErrDevRabbitMQPublishMessage = "failed to publish message to queue %s"
	ErrDevSMTPSendMail           = "failed to send mail through smtp"
	ErrDevMailerUnknownDriver    = "unknown mailer driver %s"
)
