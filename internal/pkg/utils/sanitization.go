package utils

import (
	"carelink-service/internal/pkg/dto/requests"
	"strings"
)

func SanitizeIssueMagicLinkRequest(input *requests.IssueMagicLink) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.UserAgent = strings.TrimSpace(input.UserAgent)
}

func SanitizeVerifyMagicLinkRequest(input *requests.VerifyMagicLink) {
	input.Token = strings.TrimSpace(input.Token)
}
