package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseParticipant(t *testing.T) {
	tests := []struct {
		name             string
		str              string
		expectedAddress  string
		expectedPosition bool
		expectedErr      bool
	}{
		{"yes", "alice:yes", "alice", true, false},
		{"no", "bob:NO", "bob", false, false},
		{"address with colon", "el1q:abc:true", "el1q:abc", true, false},
		{"missing position", "alice", "", false, true},
		{"empty position", "alice:", "", false, true},
		{"unknown position", "alice:maybe", "", false, true},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			address, position, err := parseParticipant(tt.str)
			if tt.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedAddress, address)
			require.Equal(t, tt.expectedPosition, position)
		})
	}
}

func TestState(t *testing.T) {
	statePath = filepath.Join(t.TempDir(), "cli", "state.json")

	_, err := getState()
	require.Error(t, err)

	require.NoError(t, setState(map[string]string{
		"server": "http://localhost:8080", "token": "",
	}))
	require.NoError(t, setState(map[string]string{"token": "abc"}))

	state, err := getState()
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"server": "http://localhost:8080", "token": "abc",
	}, state)
}

func TestDaemonClient(t *testing.T) {
	type request struct {
		method string
		path   string
		auth   string
		body   map[string]interface{}
	}
	requests := make(chan request, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := request{
			method: r.Method,
			path:   r.URL.RequestURI(),
			auth:   r.Header.Get("Authorization"),
		}
		_ = json.NewDecoder(r.Body).Decode(&req.body)
		requests <- req

		switch r.URL.Path {
		case "/v1/markets/1/propose":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"market is not active","category":"STATE"}`))
		case "/v1/markets/2":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway"))
		default:
			_, _ = w.Write([]byte(`{"id":1}`))
		}
	}))
	defer server.Close()

	client := newDaemonClient(server.URL+"/", "token")

	resp, err := client.post("/v1/markets/1/accept", map[string]interface{}{"amount": 10})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1}`, string(resp))
	req := <-requests
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, "/v1/markets/1/accept", req.path)
	require.Equal(t, "Bearer token", req.auth)
	require.Equal(t, float64(10), req.body["amount"])

	_, err = client.post(marketPath(1, "propose"), map[string]interface{}{"outcome": true})
	require.EqualError(t, err, "market is not active (state)")
	<-requests

	_, err = client.get(marketPath(2, ""))
	require.EqualError(t, err, "502 bad gateway")
	<-requests

	anonymous := newDaemonClient(server.URL, "")
	_, err = anonymous.delete("/v1/webhooks/abc")
	require.NoError(t, err)
	req = <-requests
	require.Equal(t, http.MethodDelete, req.method)
	require.Empty(t, req.auth)
}
