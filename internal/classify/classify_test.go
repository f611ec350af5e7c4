package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifierStub(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
}

func TestClassify_ValidCategory(t *testing.T) {
	srv := classifierStub(t, "newsletter", http.StatusOK)
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	got, err := c.Classify(context.Background(), "Weekly digest", "This week in Go...")
	require.NoError(t, err)
	assert.Equal(t, "newsletter", got)
}

func TestClassify_NormalizesAnswer(t *testing.T) {
	srv := classifierStub(t, "  Work. ", http.StatusOK)
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	got, err := c.Classify(context.Background(), "standup", "notes")
	require.NoError(t, err)
	assert.Equal(t, "work", got)
}

func TestClassify_OutOfVocabularyDiscarded(t *testing.T) {
	srv := classifierStub(t, "spam", http.StatusOK)
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	got, err := c.Classify(context.Background(), "subject", "body")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestClassify_ProviderError(t *testing.T) {
	srv := classifierStub(t, "", http.StatusBadGateway)
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	_, err := c.Classify(context.Background(), "subject", "body")
	assert.Error(t, err)
}

func TestClassify_UnreachableProvider(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "key")
	_, err := c.Classify(context.Background(), "subject", "body")
	assert.Error(t, err)
}

func TestEnabled(t *testing.T) {
	assert.False(t, NewClient("", "").Enabled())
	assert.True(t, NewClient("http://localhost", "").Enabled())
}
