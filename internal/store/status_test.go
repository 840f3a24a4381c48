package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHTTP(t *testing.T) {
	for code := 200; code < 300; code++ {
		assert.Equal(t, StatusOK, FromHTTP(code), "code %d", code)
	}

	tests := []struct {
		code int
		want Status
	}{
		{400, StatusBadRequest},
		{403, StatusForbidden},
		{404, StatusNotFound},
		{501, StatusNotImplemented},
		{503, StatusServiceUnavailable},
		{100, StatusError},
		{301, StatusError},
		{302, StatusError},
		{401, StatusError},
		{418, StatusError},
		{429, StatusError},
		{500, StatusError},
		{502, StatusError},
		{504, StatusError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FromHTTP(tt.code), "code %d", tt.code)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "OK"},
		{StatusNotFound, "NOT_FOUND"},
		{StatusBadRequest, "BAD_REQUEST"},
		{StatusForbidden, "FORBIDDEN"},
		{StatusNotImplemented, "NOT_IMPLEMENTED"},
		{StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{StatusError, "ERROR"},
		{StatusUnexpectedState, "UNEXPECTED_STATE"},
		{Status(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}
