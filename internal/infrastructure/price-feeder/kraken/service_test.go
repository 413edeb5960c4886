package krakenfeeder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	krakenfeeder "github.com/tdex-network/wager-daemon/internal/infrastructure/price-feeder/kraken"
)

var (
	tickers = []string{"XBT/USDT", "XBT/EUR"}
	now     = time.Unix(1700000000, 0)
)

func TestNewKrakenPriceSource(t *testing.T) {
	t.Parallel()

	svc, err := krakenfeeder.NewKrakenPriceSource("", nil, nil)
	require.ErrorIs(t, err, krakenfeeder.ErrNoTickers)
	require.Nil(t, svc)
}

func TestService(t *testing.T) {
	t.Parallel()

	subscribed := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			upgrader := websocket.Upgrader{}
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()

			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			subscribed <- msg

			msgs := []string{
				`{"event":"subscriptionStatus","status":"subscribed"}`,
				`[340,{"c":["37012.10000","0.001"]},"ticker","XBT/USDT"]`,
				`[341,{"c":["34001.5"]},"ticker","XBT/EUR"]`,
				`[342,{"c":["not a price"]},"ticker","XBT/EUR"]`,
			}
			for _, m := range msgs {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
					return
				}
			}
			// keep the connection open until the client closes it.
			conn.ReadMessage()
		},
	))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	svc, err := krakenfeeder.NewKrakenPriceSource(
		url, tickers, func() time.Time { return now },
	)
	require.NoError(t, err)

	_, err = svc.LatestPrice(context.Background(), "XBT/USDT")
	require.ErrorIs(t, err, krakenfeeder.ErrPriceNotAvailable)

	require.NoError(t, svc.Connect())
	done := make(chan error, 1)
	go func() { done <- svc.Start() }()

	msg := <-subscribed
	require.Contains(t, string(msg), `"name":"ticker"`)
	require.Contains(t, string(msg), "XBT/EUR")

	require.Eventually(t, func() bool {
		_, err := svc.LatestPrice(context.Background(), "XBT/EUR")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	reading, err := svc.LatestPrice(context.Background(), "XBT/USDT")
	require.NoError(t, err)
	require.Equal(t, "37012.1", reading.Price.String())
	require.Equal(t, now, reading.ObservedAt)

	reading, err = svc.LatestPrice(context.Background(), "XBT/EUR")
	require.NoError(t, err)
	require.Equal(t, "34001.5", reading.Price.String())

	svc.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("price source did not stop")
	}
}
