package utils

import (
	"carelink-service/internal/pkg/constvars"
	"strings"
)

// EmailDomain returns only the domain part so addresses stay out of the logs.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return constvars.ResponseUnknown
	}
	return email[at+1:]
}
