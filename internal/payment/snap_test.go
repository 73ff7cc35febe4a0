package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/snap/v1/transactions", r.URL.Path)

		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "server-key", user)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		details := body["transaction_details"].(map[string]any)
		require.Equal(t, "ORDER-1-123", details["order_id"])
		require.Equal(t, float64(23161), details["gross_amount"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"token":        "snap-token",
			"redirect_url": "https://pay.example/xyz",
		})
	}))
	defer srv.Close()

	c := NewSnapClient(srv.URL, "server-key")
	session, err := c.CreateSession(context.Background(), SessionRequest{
		OrderID:     "ORDER-1-123",
		GrossAmount: 23161,
		Customer:    Customer{Email: "buyer@example.com", FirstName: "Buyer"},
		Items: []Item{
			{ID: "1", Price: 9000, Quantity: 2, Name: "Apel"},
			{ID: "2", Price: 5000, Quantity: 1, Name: "Roti"},
			{ID: "PPN", Price: 161, Quantity: 1, Name: "PPN (0.7%)"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "snap-token", session.Token)
	require.Equal(t, "https://pay.example/xyz", session.RedirectURL)
}

func TestCreateSessionGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewSnapClient(srv.URL, "bad-key")
	_, err := c.CreateSession(context.Background(), SessionRequest{OrderID: "ORDER-2-456"})
	require.Error(t, err)
}

func TestCreateSessionMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewSnapClient(srv.URL, "server-key")
	_, err := c.CreateSession(context.Background(), SessionRequest{OrderID: "ORDER-3-789"})
	require.Error(t, err)
}
