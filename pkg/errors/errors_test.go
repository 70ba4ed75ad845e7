package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := &Error{Type: ErrorTypeRemoteAPI, Message: "Not Found", Code: 404}
	assert.Equal(t, "remote_api error (code 404): Not Found", err.Error())

	withURL := NetworkError("https://64.media.tumblr.com/a.jpg", 502, nil)
	assert.Contains(t, withURL.Error(), "unexpected status code: 502")
	assert.Contains(t, withURL.Error(), "url: https://64.media.tumblr.com/a.jpg")
}

func TestIs(t *testing.T) {
	base := DataIntegrityError("photo has no sizes")
	wrapped := fmt.Errorf("choose url: %w", base)

	assert.True(t, Is(wrapped, ErrorTypeDataIntegrity))
	assert.False(t, Is(wrapped, ErrorTypeNetwork))
	assert.False(t, Is(errors.New("plain"), ErrorTypeNetwork))
}

func TestNetworkErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NetworkError("https://example.com/x.png", 0, cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "connection reset", err.Message)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeRemoteAPI, false},
		{ErrorTypeDataIntegrity, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, ErrorTypeAuth, TypeForStatus(401))
	assert.Equal(t, ErrorTypeAuth, TypeForStatus(403))
	assert.Equal(t, ErrorTypeNotFound, TypeForStatus(404))
	assert.Equal(t, ErrorTypeRateLimit, TypeForStatus(429))
	assert.Equal(t, ErrorTypeServerError, TypeForStatus(503))
	assert.Equal(t, ErrorTypeUnknown, TypeForStatus(418))

	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.False(t, IsRetryableStatusCode(404))
}
