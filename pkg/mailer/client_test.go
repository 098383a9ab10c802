package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got SendRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/messages", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(SendResponse{ID: "msg-1", Status: "queued"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "test-key")
		resp, err := client.Send(context.Background(), &SendRequest{
			From:    "orders@example.com",
			To:      "buyer@example.com",
			Subject: "Order confirmation",
			HTML:    "<p>hi</p>",
		})
		require.NoError(t, err)
		assert.Equal(t, "msg-1", resp.ID)
		assert.Equal(t, "buyer@example.com", got.To)
		assert.Equal(t, "Order confirmation", got.Subject)
	})

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad key"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "wrong-key")
		_, err := client.Send(context.Background(), &SendRequest{To: "x@y.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("provider-level rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(SendResponse{Status: "error", Message: "invalid recipient"})
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "test-key")
		_, err := client.Send(context.Background(), &SendRequest{To: "bad"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid recipient")
	})
}
