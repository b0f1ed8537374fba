package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeMessage(t *testing.T) {
	msg, err := WelcomeMessage("alice@example.com", "K7P2QX")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", msg.To)
	assert.Equal(t, "Welcome to democracy365", msg.Subject)
	assert.Contains(t, msg.HTML, "<h3>K7P2QX</h3>")
	assert.Equal(t, "Welcome to democracy365. Your secret login code is: K7P2QX", msg.Text)
}

func TestSigninCodeMessage(t *testing.T) {
	msg, err := SigninCodeMessage("bob@example.com", "ABC234")
	require.NoError(t, err)

	assert.Equal(t, "Your secret login code", msg.Subject)
	assert.Contains(t, msg.HTML, "<h3>ABC234</h3>")
	assert.Equal(t, "Your secret login code: ABC234", msg.Text)
}

func TestMessage_HTMLIsEscaped(t *testing.T) {
	msg, err := SigninCodeMessage("x@example.com", "<script>")
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}
