package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteBackendWithoutCredential(t *testing.T) {
	backend := NewRemoteBackend("gpt-4o-mini", "", "")

	_, err := backend.Analyze(context.Background(), "sys", "input")

	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLocalBackendSendsProtocolPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"response":"{\"severity\":\"Low\"}"}`)
	}))
	defer srv.Close()

	backend := NewLocalBackend("mistralai/ministral-3-3b", srv.URL, time.Second)
	text, err := backend.Analyze(context.Background(), "system text", "evidence")

	require.NoError(t, err)
	assert.Equal(t, `{"severity":"Low"}`, text)
	assert.Equal(t, "mistralai/ministral-3-3b", got["model"])
	assert.Equal(t, "system text", got["system_prompt"])
	assert.Equal(t, "evidence", got["input"])
}

func TestLocalBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	backend := NewLocalBackend("m", srv.URL, time.Second)
	_, err := backend.Analyze(context.Background(), "s", "i")

	assert.Error(t, err)
}

func TestExtractResponseTextEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "openai choices shape",
			body: `{"choices":[{"message":{"content":"from choices"}}],"response":"ignored"}`,
			want: "from choices",
		},
		{
			name: "response field",
			body: `{"response":"from response"}`,
			want: "from response",
		},
		{
			name: "message field",
			body: `{"message":"from message"}`,
			want: "from message",
		},
		{
			name: "unknown shape stringified",
			body: `{"output":"something else"}`,
			want: `{"output":"something else"}`,
		},
		{
			name: "not json at all",
			body: `plain text reply`,
			want: `plain text reply`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractResponseText([]byte(tc.body)))
		})
	}
}
