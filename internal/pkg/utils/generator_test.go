package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateArchiveObjectName(t *testing.T) {
	at := time.Date(2026, 3, 1, 4, 5, 6, 0, time.FixedZone("WIB", 7*60*60))

	assert.Equal(t, "magic_links/2026/02/28/20260228T210506Z-000.json", GenerateArchiveObjectName("magic_links", at, 0))
	assert.Equal(t, "magic_links/2026/02/28/20260228T210506Z-012.json", GenerateArchiveObjectName("magic_links", at, 12))
}

func TestGenerateRandomSecret(t *testing.T) {
	first, err := GenerateRandomSecret(32)
	require.NoError(t, err)
	second, err := GenerateRandomSecret(32)
	require.NoError(t, err)

	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}

func TestGenerateRequestID(t *testing.T) {
	_, err := uuid.Parse(GenerateRequestID())
	assert.NoError(t, err)
}
