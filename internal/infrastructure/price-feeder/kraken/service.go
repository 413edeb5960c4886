package krakenfeeder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
)

const (
	// KrakenWebSocketURL is the url to open a connection with kraken.
	KrakenWebSocketURL = "wss://ws.kraken.com"
)

// Service keeps the latest ticker price streamed by the kraken websocket
// API and serves it as a ports.PriceSource.
type Service struct {
	url     string
	tickers []string
	clock   func() time.Time

	conn     *websocket.Conn
	lock     *sync.RWMutex
	latest   map[string]ports.PriceReading
	quitChan chan struct{}
}

// NewKrakenPriceSource returns a price source subscribed to the given
// tickers, ie. XBT/USDT. An empty url defaults to KrakenWebSocketURL.
func NewKrakenPriceSource(
	url string, tickers []string, clock func() time.Time,
) (*Service, error) {
	if len(tickers) <= 0 {
		return nil, ErrNoTickers
	}
	if len(url) <= 0 {
		url = KrakenWebSocketURL
	}
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		url:      url,
		tickers:  tickers,
		clock:    clock,
		lock:     &sync.RWMutex{},
		latest:   make(map[string]ports.PriceReading),
		quitChan: make(chan struct{}, 1),
	}, nil
}

// Connect opens the websocket connection and subscribes to the tickers.
func (s *Service) Connect() error {
	conn, err := connectAndSubscribe(s.url, s.tickers)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// Start reads price updates until Stop is called, reconnecting whenever the
// connection drops unexpectedly.
func (s *Service) Start() error {
	if s.conn == nil {
		if err := s.Connect(); err != nil {
			return err
		}
	}

	mustReconnect, err := s.start()
	for mustReconnect {
		log.WithError(err).Warn("kraken: connection dropped unexpectedly, reconnecting")

		if err = s.Connect(); err != nil {
			return err
		}

		log.Debug("kraken: connection and subscriptions re-established")
		mustReconnect, err = s.start()
	}
	return err
}

func (s *Service) Stop() {
	s.quitChan <- struct{}{}
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Service) LatestPrice(
	_ context.Context, ticker string,
) (ports.PriceReading, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	reading, ok := s.latest[ticker]
	if !ok {
		return ports.PriceReading{}, fmt.Errorf("%w %s", ErrPriceNotAvailable, ticker)
	}
	return reading, nil
}

func (s *Service) start() (mustReconnect bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			mustReconnect = true
			err = fmt.Errorf("%v", rec)
		}
	}()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.quitChan:
				return false, nil
			default:
			}
			// The read may panic instead of returning an UnexpectedCloseError
			// when kraken drops the connection. Both cases end up in the
			// deferred recover to trigger a reconnection.
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			) {
				panic(err)
			}
			return false, err
		}

		reading := s.parseFeed(message)
		if reading == nil {
			continue
		}
		s.writePrice(*reading)
	}
}

func (s *Service) writePrice(reading ports.PriceReading) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.latest[reading.Ticker] = reading
}

// parseFeed extracts the last trade closed price from a ticker message like
// [channelID, {"c": ["price", "volume"], ...}, "ticker", "XBT/USDT"].
func (s *Service) parseFeed(msg []byte) *ports.PriceReading {
	var i []interface{}
	if err := json.Unmarshal(msg, &i); err != nil {
		return nil
	}
	if len(i) != 4 {
		return nil
	}

	ticker, ok := i[3].(string)
	if !ok {
		return nil
	}

	ii, ok := i[1].(map[string]interface{})
	if !ok {
		return nil
	}

	iii, ok := ii["c"].([]interface{})
	if !ok || len(iii) < 1 {
		return nil
	}
	priceStr, ok := iii[0].(string)
	if !ok {
		return nil
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil
	}

	return &ports.PriceReading{
		Ticker:     ticker,
		Price:      price,
		ObservedAt: s.clock(),
	}
}

func connectAndSubscribe(url string, tickers []string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	msg := map[string]interface{}{
		"event": "subscribe",
		"pair":  tickers,
		"subscription": map[string]string{
			"name": "ticker",
		},
	}

	buf, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot subscribe to given tickers: %s", err)
	}

	return conn, nil
}
