package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/recvault/recvault/pkg/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string, secret string, events ...webhook.EventType) *webhook.Client {
	return webhook.NewClient(&webhook.Config{
		Enabled:    true,
		MaxRetries: 0,
		RetryDelay: time.Millisecond,
		Hooks: []webhook.HookConfig{
			{URL: url, Secret: secret, Events: events, Enabled: true},
		},
	})
}

func TestSend_DeliversMatchingEvent(t *testing.T) {
	var received webhook.Event
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Recvault-Event")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", webhook.EventRecordingCompleted)
	defer c.Close()

	err := c.Send(webhook.Event{
		Event:  webhook.EventRecordingCompleted,
		Folder: "2026-03-01_week-02_session-001",
	}, false)
	require.NoError(t, err)

	assert.Equal(t, string(webhook.EventRecordingCompleted), header)
	assert.Equal(t, "2026-03-01_week-02_session-001", received.Folder)
	assert.NotEmpty(t, received.Timestamp)
}

func TestSend_SkipsNonMatchingEvent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", webhook.EventRecordingPurged)
	defer c.Close()

	require.NoError(t, c.Send(webhook.Event{Event: webhook.EventRecordingStarted}, false))
	assert.Zero(t, hits.Load())
}

func TestSend_SignsPayload(t *testing.T) {
	var signature string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Recvault-Signature")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "topsecret", "*")
	defer c.Close()

	require.NoError(t, c.Send(webhook.Event{Event: webhook.EventVerifyFailed}, false))

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, expected, signature)
}

func TestSend_DisabledClientIsNoop(t *testing.T) {
	c := webhook.NewClient(&webhook.Config{Enabled: false})
	defer c.Close()
	assert.NoError(t, c.Send(webhook.Event{Event: webhook.EventRecordingStarted}, false))
}

func TestSend_AsyncDeliversBeforeClose(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "*")
	require.NoError(t, c.Send(webhook.Event{Event: webhook.EventRecordingStarted}, true))
	require.NoError(t, c.Close())

	assert.Equal(t, int32(1), hits.Load())
}

func TestSend_ServerErrorReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "", "*")
	defer c.Close()

	err := c.Send(webhook.Event{Event: webhook.EventRecordingStarted}, false)
	assert.Error(t, err)
}
