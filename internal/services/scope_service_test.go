package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestScopeService() ScopeService {
	return NewScopeService(nil, time.Second)
}

func TestScopeAuthorize_SubsetAllowed(t *testing.T) {
	svc := newTestScopeService()

	granted := []string{"oauth:user:create", "oauth:user:read", "oauth:client:read"}
	assert.True(t, svc.Authorize(granted, []string{"oauth:user:create"}))
	assert.True(t, svc.Authorize(granted, []string{"oauth:user:read", "oauth:client:read"}))
}

func TestScopeAuthorize_MissingScopeDenied(t *testing.T) {
	svc := newTestScopeService()

	granted := []string{"oauth:user:create", "oauth:user:read"}
	assert.False(t, svc.Authorize(granted, []string{"oauth:user:delete"}))
	// One covered scope does not excuse a missing one
	assert.False(t, svc.Authorize(granted, []string{"oauth:user:read", "oauth:user:delete"}))
}

func TestScopeAuthorize_EmptyRequiredAllowed(t *testing.T) {
	svc := newTestScopeService()

	assert.True(t, svc.Authorize([]string{"oauth:user:read"}, nil))
	assert.True(t, svc.Authorize(nil, nil))
}

func TestScopeAuthorize_EmptyGrantedDenied(t *testing.T) {
	svc := newTestScopeService()

	assert.False(t, svc.Authorize(nil, []string{"oauth:user:read"}))
}

func TestScopeAuthorize_CaseSensitive(t *testing.T) {
	svc := newTestScopeService()

	assert.False(t, svc.Authorize([]string{"oauth:User:read"}, []string{"oauth:user:read"}))
}

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseScopes("a b c"))
	assert.Equal(t, []string{"a", "b"}, ParseScopes("  a   b  "))
	assert.Empty(t, ParseScopes(""))
}

func TestJoinScopes(t *testing.T) {
	assert.Equal(t, "a b", JoinScopes([]string{"a", "b"}))
	assert.Equal(t, "", JoinScopes(nil))
}
