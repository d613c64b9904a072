package requests

import "time"

type SignTokenInput struct {
	Subject string
	LinkID  string
	Kind    string
	TTL     time.Duration
}

type VerifyTokenInput struct {
	Token string
}
