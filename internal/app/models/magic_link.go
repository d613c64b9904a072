package models

import "time"

type MagicLink struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	RequestIP  *string    `json:"request_ip,omitempty"`
	UserAgent  *string    `json:"user_agent,omitempty"`
}

func (m *MagicLink) IsConsumed() bool {
	return m.ConsumedAt != nil
}

type ConsumeResult int

const (
	ConsumeResultConsumed ConsumeResult = iota + 1
	ConsumeResultAlreadyUsed
	ConsumeResultNotFound
)

func (r ConsumeResult) String() string {
	switch r {
	case ConsumeResultConsumed:
		return "consumed"
	case ConsumeResultAlreadyUsed:
		return "already_used"
	case ConsumeResultNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
