package constvars

const (
	LoggingRequestIDKey     = "request_id"
	LoggingErrorKey         = "error"
	LoggingSuppressedKey    = "suppressed"
	LoggingLinkIDKey        = "link_id"
	LoggingEmailDomainKey   = "email_domain"
	LoggingClientIPKey      = "client_ip"
	LoggingMessageIDKey     = "message_id"
	LoggingBucketNameKey    = "bucket_name"
	LoggingObjectNameKey    = "object_name"
	LoggingLockKey          = "lock_key"
	LoggingReapedCountKey   = "reaped_count"
	LoggingVerifyFailureKey = "verify_failure"
	LoggingIssuanceStageKey = "stage"
	LoggingRetryAfterKey    = "retry_after_seconds"
	LoggingInternalChannel  = "auth.issuance.internal"
	LoggingWorkerReaperName = "magic_link_reaper"
	LoggingMethodKey        = "method"
	LoggingEndpointKey      = "endpoint"
	LoggingRemoteAddrKey    = "remote_addr"
	LoggingUserAgentKey     = "user_agent"
	LoggingStatusCodeKey    = "status_code"
	LoggingDurationKey      = "duration"
	LoggingSuccessKey       = "success"
	LoggingQueueKey         = "queue"
)

// Issuance stages reported on the internal channel.
const (
	IssuanceStageSign     = "sign"
	IssuanceStagePersist  = "persist"
	IssuanceStageDispatch = "dispatch"
)
