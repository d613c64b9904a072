package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateRequestID() string {
	return uuid.NewString()
}

// GenerateRandomSecret returns a url-safe secret built from n random bytes.
func GenerateRandomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateArchiveObjectName lays archives out by day. batch keeps names unique
// when one sweep writes several objects.
func GenerateArchiveObjectName(prefix string, at time.Time, batch int) string {
	return fmt.Sprintf("%s/%s/%s-%03d.json", prefix, at.UTC().Format("2006/01/02"), at.UTC().Format("20060102T150405Z"), batch)
}
