package requests

type EmailPayload struct {
	Subject  string            `json:"subject"`
	From     string            `json:"from"`
	To       []string          `json:"to"`
	Body     string            `json:"body"`
	HTMLCode string            `json:"html_code,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}
