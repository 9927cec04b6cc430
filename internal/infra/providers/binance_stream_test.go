package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestStreamOnce_ReconnectsWithoutLeakingWatchers(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")

	s := NewBinanceStream(endpoint, nil, nil, time.Minute, time.Second, zap.NewNop())
	before := runtime.NumGoroutine()

	for i := 0; i < 30; i++ {
		if err := s.streamOnce(context.Background(), endpoint); err == nil {
			t.Fatal("dropped connection must surface a read error")
		}
	}

	// Each connection's watcher exits when streamOnce returns; give the
	// scheduler a moment before comparing counts.
	deadline := time.Now().Add(2 * time.Second)
	for {
		runtime.Gosched()
		if runtime.NumGoroutine() <= before+3 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("goroutines before=%d after=%d: connection watchers not released",
				before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDecodeMiniTicker(t *testing.T) {
	pairToSymbol := map[string]string{"BTCUSDT": "BTC"}

	quote, err := decodeMiniTicker([]byte(
		`{"stream":"btcusdt@miniTicker","data":{"e":"24hrMiniTicker","s":"BTCUSDT","c":"50500.25","o":"50000"}}`,
	), pairToSymbol)
	if err != nil || quote == nil {
		t.Fatalf("decode: quote=%v err=%v", quote, err)
	}
	if quote.Symbol != "BTC" || quote.Price.String() != "50500.25" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if quote.ChangePercent24h == nil || quote.ChangePercent24h.String() != "1.0005" {
		t.Fatalf("change = %v", quote.ChangePercent24h)
	}

	// Non-ticker events and unmapped pairs are skipped, not errors.
	quote, err = decodeMiniTicker([]byte(`{"data":{"e":"trade","s":"BTCUSDT"}}`), pairToSymbol)
	if err != nil || quote != nil {
		t.Fatalf("non-ticker event: quote=%v err=%v", quote, err)
	}
	quote, err = decodeMiniTicker([]byte(
		`{"data":{"e":"24hrMiniTicker","s":"ETHUSDT","c":"3000"}}`,
	), pairToSymbol)
	if err != nil || quote != nil {
		t.Fatalf("unmapped pair: quote=%v err=%v", quote, err)
	}

	if _, err := decodeMiniTicker([]byte(
		`{"data":{"e":"24hrMiniTicker","s":"BTCUSDT","c":"garbage"}}`,
	), pairToSymbol); err == nil {
		t.Fatal("unparseable price must be an error")
	}
}
