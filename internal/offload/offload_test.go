package offload_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/offload"
)

func TestRemoteRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs map[string]float64 `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"outputs": map[string]float64{"y": body.Inputs["x"] * 2},
		})
	}))
	defer srv.Close()

	client := resty.New()
	defer client.Close()

	body := offload.Remote(context.Background(), client, srv.URL)

	in := map[string]cell.Cell{"x": cell.NewFloat64(5)}
	out := map[string]cell.Cell{"y": cell.NewFloat64(0)}
	body(in, out)

	v, ok := out["y"].AsFloat64()
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestRemotePanicsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := resty.New()
	defer client.Close()

	body := offload.Remote(context.Background(), client, srv.URL)

	assert.Panics(t, func() {
		body(map[string]cell.Cell{"x": cell.NewFloat64(1)}, map[string]cell.Cell{"y": cell.NewFloat64(0)})
	})
}

func TestRemotePanicsOnVariantMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := resty.New()
	defer client.Close()

	body := offload.Remote(context.Background(), client, srv.URL)

	assert.Panics(t, func() {
		body(map[string]cell.Cell{"x": cell.NewText("not a number")}, map[string]cell.Cell{"y": cell.NewFloat64(0)})
	})
}
