package responses

import "time"

// AuthResponse is the body shape shared by every /auth route.
type AuthResponse struct {
	OK        bool   `json:"ok"`
	Email     string `json:"email,omitempty"`
	Error     string `json:"error,omitempty"`
	MagicLink string `json:"magic_link,omitempty"`
}

type VerifiedSession struct {
	Email        string
	SessionToken string
	ExpiresAt    time.Time
}

type IssuedMagicLink struct {
	LinkID    string
	URL       string
	ExpiresAt time.Time
}

type TokenClaims struct {
	Subject   string
	LinkID    string
	Kind      string
	TokenID   string
	Issuer    string
	Audience  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
