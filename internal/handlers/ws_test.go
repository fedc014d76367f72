package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameHostOrigin(t *testing.T) {
	req := httptest.NewRequest("GET", "http://board.local/api/ws", nil)
	assert.True(t, sameHostOrigin(req), "non-browser clients send no Origin")

	req.Header.Set("Origin", "http://board.local")
	assert.True(t, sameHostOrigin(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, sameHostOrigin(req))

	req.Header.Set("Origin", "://not-a-url")
	assert.False(t, sameHostOrigin(req))
}
