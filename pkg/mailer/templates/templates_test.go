package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIdentityAlert(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	subject, text, html, err := Render(IdentityAlert, AlertData{
		AppName: "idsvc",
		Kind:    "integrity",
		UserID:  "u-1",
		Message: "stored password hash is malformed",
		Error:   "<bad hex>",
		At:      at,
	})
	require.NoError(t, err)
	assert.Equal(t, "[idsvc] INTEGRITY event for user u-1", subject)
	assert.Contains(t, text, "2024-05-01 10:30:00 UTC")
	assert.Contains(t, text, "Error:   <bad hex>")
	assert.Contains(t, html, "&lt;bad hex&gt;")
}

func TestRenderIdentityAlert_Defaults(t *testing.T) {
	subject, text, _, err := Render(IdentityAlert, AlertData{Kind: "provisioning_conflict", Message: "gave up"})
	require.NoError(t, err)
	assert.Equal(t, "[identity] PROVISIONING_CONFLICT event", subject)
	assert.Contains(t, text, "User:    n/a")
	assert.NotContains(t, text, "Error:")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("missing", nil)
	assert.Error(t, err)
}
