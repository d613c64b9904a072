package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_Fallbacks(t *testing.T) {
	t.Setenv("CARELINK_TEST_INT", "not-a-number")
	t.Setenv("CARELINK_TEST_BOOL", "true")
	t.Setenv("CARELINK_TEST_DURATION", "90s")
	t.Setenv("CARELINK_TEST_EMPTY", "")

	assert.Equal(t, 7, GetEnvInt("CARELINK_TEST_INT", 7))
	assert.True(t, GetEnvBool("CARELINK_TEST_BOOL", false))
	assert.Equal(t, 90*time.Second, GetEnvDuration("CARELINK_TEST_DURATION", time.Minute))
	assert.Equal(t, "fallback", GetEnvString("CARELINK_TEST_EMPTY", "fallback"))
	assert.Equal(t, "fallback", GetEnvString("CARELINK_TEST_UNSET", "fallback"))
}

func TestGetEnvStringSlice(t *testing.T) {
	t.Setenv("CARELINK_TEST_ORIGINS", " https://a.example.com ,, https://b.example.com ")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, GetEnvStringSlice("CARELINK_TEST_ORIGINS", nil))

	t.Setenv("CARELINK_TEST_BLANK", " , ")
	assert.Equal(t, []string{"x"}, GetEnvStringSlice("CARELINK_TEST_BLANK", []string{"x"}))
}
