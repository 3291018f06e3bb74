package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer abc123")

	token, ok := BearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)
}

func TestBearerToken_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	_, ok := BearerToken(req)
	assert.False(t, ok)
}

func TestBearerToken_WrongScheme(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, ok := BearerToken(req)
	assert.False(t, ok)
}

func TestBearerToken_EmptyValue(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer ")

	_, ok := BearerToken(req)
	assert.False(t, ok)
}

func TestValidatePaginationParams(t *testing.T) {
	limit, offset, err := ValidatePaginationParams(0, -5)
	assert.NoError(t, err)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	limit, _, err = ValidatePaginationParams(5000, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1000, limit)

	_, _, err = ValidatePaginationParams(10, 2000000)
	assert.Error(t, err)
}
