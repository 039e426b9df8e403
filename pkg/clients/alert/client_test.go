package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitledger/internal/config"
)

func TestSendLowStockPostsJSONWithToken(t *testing.T) {
	var (
		gotAuth string
		gotBody LowStockAlert
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(config.AlertConfig{WebhookURL: srv.URL + "/hook", Token: "s3cret"})
	alert := LowStockAlert{Equipment: "Illumina", Kit: "P1 300", Quantity: 1, Threshold: 2, At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	require.NoError(t, client.SendLowStock(context.Background(), alert))
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, alert, gotBody)
}

func TestSendLowStockSurfacesReceiverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad token"}`))
	}))
	defer srv.Close()

	err := NewClient(config.AlertConfig{WebhookURL: srv.URL}).SendLowStock(context.Background(), LowStockAlert{Kit: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=401")
	assert.Contains(t, err.Error(), "bad token")
}
