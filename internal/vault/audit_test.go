package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMeta(t *testing.T) {
	meta := map[string]any{
		"entryId":       "abc",
		"reason":        "bad_passphrase",
		"password":      "hunter2",
		"oldPassword":   "hunter1",
		"clientSecret":  "s3cret",
		"masterKeyHash": "deadbeef",
		"sessionToken":  "tok",
		"encKey":        "k",
	}

	clean := sanitizeMeta(meta)

	assert.Equal(t, map[string]any{
		"entryId": "abc",
		"reason":  "bad_passphrase",
	}, clean)
}

func TestSanitizeMeta_NilInput(t *testing.T) {
	clean := sanitizeMeta(nil)
	assert.NotNil(t, clean)
	assert.Empty(t, clean)
}
