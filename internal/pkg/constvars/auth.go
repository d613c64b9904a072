package constvars

import "time"

const (
	SessionCookieName     = "session"
	SessionCookiePath     = "/"
	MagicLinkCallbackPath = "/auth/callback"
	MagicLinkTokenParam   = "token"

	MagicLinkTTL = 15 * time.Minute
	SessionTTL   = 7 * 24 * time.Hour

	IssuanceRateLimitMax    = 8
	IssuanceRateLimitWindow = 15 * time.Minute
)

// Token kinds carried in the knd claim.
const (
	TokenKindMagic   = "magic"
	TokenKindSession = "session"
)

const (
	MagicLinkEmailSubject = "Your sign-in link"
	MagicLinkEmailBody    = "Use the link below to sign in. It expires in %d minutes and can be used once.\n\n%s\n\nIf you did not request this email you can ignore it."
)
