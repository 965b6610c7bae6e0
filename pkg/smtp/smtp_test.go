package smtp

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	sent []*gomail.Message
	err  error
}

func (s *recordingSender) DialAndSend(m ...*gomail.Message) error {
	s.sent = append(s.sent, m...)
	return s.err
}

func TestClient_Send(t *testing.T) {
	viper.Set("service.smtp.domain", "kug.example.com")
	viper.Set("service.smtp.email", "noreply@kug.example.com")
	t.Cleanup(viper.Reset)

	rec := &recordingSender{}
	c := &Client{dialer: rec}

	require.NoError(t, c.Send("ann@example.com", "New badge", "You earned speaker", "<b>speaker</b>"))
	require.Len(t, rec.sent, 1)

	msg := rec.sent[0]
	assert.Equal(t, []string{"ann@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"noreply@kug.example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"New badge"}, msg.GetHeader("Subject"))
	assert.True(t, strings.HasSuffix(msg.GetHeader("Message-ID")[0], "@kug.example.com>"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "You earned speaker")
	assert.Contains(t, buf.String(), "text/html")
}

func TestClient_SendError(t *testing.T) {
	c := &Client{dialer: &recordingSender{err: errors.New("relay down")}}
	assert.EqualError(t, c.Send("ann@example.com", "s", "t", ""), "relay down")
}
