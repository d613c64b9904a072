package requests

type IssueMagicLink struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	RequestIP string `json:"-"`
	UserAgent string `json:"-"`
}

type VerifyMagicLink struct {
	Token string `json:"token" validate:"required,jwt,max=2048"`
}
