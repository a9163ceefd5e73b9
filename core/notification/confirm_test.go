package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPConfirmer_Confirm(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "ConfirmSubscription", r.URL.Query().Get("Action"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &HTTPConfirmer{Client: srv.Client()}
	require.NoError(t, c.Confirm(context.Background(), srv.URL+"/?Action=ConfirmSubscription&Token=abc"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPConfirmer_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := &HTTPConfirmer{Client: srv.Client()}
	assert.Error(t, c.Confirm(context.Background(), srv.URL))
	assert.Error(t, c.Confirm(context.Background(), "/relative/only"))
	assert.Error(t, c.Confirm(context.Background(), "file:///etc/passwd"))
}

func TestSMTPNotifier(t *testing.T) {
	n := NewSMTPNotifier("mail.example.com:587", "user", "secret", "encoder@example.com", []string{"ops@example.com", "dev@example.com"})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, n.NotifyOperators(context.Background(), "Please confirm SNS subscription", "visit\nhttps://example/confirm"))
	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, gotTo)
	assert.True(t, strings.Contains(gotMsg, "Subject: [encoder] Please confirm SNS subscription\r\n"))
	assert.True(t, strings.HasSuffix(gotMsg, "visit\r\nhttps://example/confirm"))
}

func TestSMTPNotifier_NoRecipients(t *testing.T) {
	n := NewSMTPNotifier("mail.example.com:25", "", "", "a@b", nil)
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	assert.NoError(t, n.NotifyOperators(context.Background(), "s", "b"))
}
