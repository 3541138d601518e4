package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWhatsAppServer(t *testing.T, sendStatus int, logins *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(logins, 1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user", body["username"])

		resp := whatsAppAuthResponse{}
		resp.Data.Item.Token = "tok-123"
		resp.Data.Item.Expiration = time.Now().Add(time.Hour).UnixMilli()
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/callcenter/hsm/send/hsm-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var req whatsAppMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Destinations, 1)
		assert.Equal(t, "5521987654321", req.Destinations[0].To)
		assert.Equal(t, "123456", req.Destinations[0].Vars["COD"])
		assert.Equal(t, "Ana", req.Destinations[0].Vars["NOME"])
		assert.Equal(t, 7, req.CostCenterID)

		w.WriteHeader(sendStatus)
		if sendStatus != http.StatusCreated {
			json.NewEncoder(w).Encode(whatsAppErrorResponse{StatusCode: sendStatus, Message: "template rejected"})
		}
	})
	return httptest.NewServer(mux)
}

func testWhatsAppConfig(baseURL string) WhatsAppConfig {
	return WhatsAppConfig{
		BaseURL:      baseURL,
		Username:     "user",
		Password:     "pass",
		HSMID:        "hsm-1",
		CostCenterID: "7",
		CampaignName: "download-otp",
	}
}

func TestWhatsAppChannel_Send(t *testing.T) {
	var logins int32
	server := newWhatsAppServer(t, http.StatusCreated, &logins)
	defer server.Close()

	ch := NewWhatsAppChannel(testWhatsAppConfig(server.URL), NewMemoryTokenCache(), server.Client(), logging.Logger)
	msg := Message{To: "5521987654321", Name: "Ana", Code: "123456"}

	require.NoError(t, ch.Send(context.Background(), msg))
	require.NoError(t, ch.Send(context.Background(), msg))

	assert.Equal(t, int32(1), atomic.LoadInt32(&logins), "token should be cached between sends")
	assert.Equal(t, "whatsapp", ch.Name())
	assert.True(t, ch.Real())
}

func TestWhatsAppChannel_ProviderError(t *testing.T) {
	var logins int32
	server := newWhatsAppServer(t, http.StatusBadRequest, &logins)
	defer server.Close()

	ch := NewWhatsAppChannel(testWhatsAppConfig(server.URL), nil, server.Client(), logging.Logger)

	err := ch.Send(context.Background(), Message{To: "5521987654321", Name: "Ana", Code: "123456"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template rejected")
}

func TestWhatsAppChannel_InvalidInput(t *testing.T) {
	ch := NewWhatsAppChannel(testWhatsAppConfig("http://127.0.0.1:0"), nil, nil, logging.Logger)

	err := ch.Send(context.Background(), Message{To: "+55 21 98765", Code: "1"})
	assert.Error(t, err)

	cfg := testWhatsAppConfig("http://127.0.0.1:0")
	cfg.CostCenterID = "abc"
	ch = NewWhatsAppChannel(cfg, nil, nil, logging.Logger)
	err = ch.Send(context.Background(), Message{To: "5521987654321", Code: "1"})
	assert.Error(t, err)
}

func TestMemoryTokenCache(t *testing.T) {
	cache := NewMemoryTokenCache()
	ctx := context.Background()

	_, ok := cache.Get(ctx, "k")
	assert.False(t, ok)

	cache.Set(ctx, "k", "v", time.Minute)
	got, ok := cache.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	cache.Set(ctx, "expired", "v", -time.Second)
	_, ok = cache.Get(ctx, "expired")
	assert.False(t, ok)
}
