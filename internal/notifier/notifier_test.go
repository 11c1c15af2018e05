package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleView/internal/model"
	"CandleView/internal/profit"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "BTC/USDT: 12,345.6", FormatPrice("BTC/USDT", 12345.6))
	assert.Equal(t, "ETH/USDT: 999.0", FormatPrice("ETH/USDT", 999))
}

func TestFormatTradeHistory(t *testing.T) {
	out := FormatTradeHistory([]model.TradeRow{
		{Coin: "BTC", Quantity: 0.5, LiqPrice: 3300, UnrealizedPct: 33.333, RealizedPL: 0},
		{Coin: "ETH", Quantity: 2, LiqPrice: 0, UnrealizedPct: -1.5, RealizedPL: 12.5},
	})

	assert.Contains(t, out, "Liq. Price")
	assert.Contains(t, out, "0.50000000")
	assert.Contains(t, out, "3,300.00")
	assert.Contains(t, out, "+33.33%")
	assert.Contains(t, out, "-1.50%")
	assert.Contains(t, out, "+12.50")
}

func TestFormatProfitRates(t *testing.T) {
	out := FormatProfitRates(profit.Rates{MyRate: 1.234, Daily: -0.5, Total: 10})

	for _, label := range profit.RowLabels {
		assert.Contains(t, out, label)
	}
	assert.Contains(t, out, "+1.23%")
	assert.Contains(t, out, "-0.50%")
	assert.Contains(t, out, "+10.00%")
}

func TestPre(t *testing.T) {
	assert.Equal(t, "<pre>a &lt;b&gt; &amp; c</pre>", Pre("a <b> & c"))
}

type fakeTelegram struct {
	mu       sync.Mutex
	messages []map[string]string
	photos   []string
	fail     int
	updates  string
}

func (f *fakeTelegram) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/getUpdates") {
			f.mu.Lock()
			body := f.updates
			f.updates = ""
			f.mu.Unlock()
			if body == "" {
				time.Sleep(20 * time.Millisecond)
				body = `{"ok":true,"result":[]}`
			}
			w.Write([]byte(body))
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if f.fail > 0 {
				f.fail--
				http.Error(w, `{"ok":false}`, http.StatusInternalServerError)
				return
			}
			var payload map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			f.messages = append(f.messages, payload)
			w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/sendPhoto"):
			_, header, err := r.FormFile("photo")
			if !assert.NoError(t, err) {
				return
			}
			f.photos = append(f.photos, header.Filename+"|"+r.FormValue("caption"))
			w.Write([]byte(`{"ok":true}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestNotifier(t *testing.T, fake *fakeTelegram) *TelegramNotifier {
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	return n
}

func TestSend(t *testing.T) {
	fake := &fakeTelegram{}
	n := newTestNotifier(t, fake)

	require.NoError(t, n.Send("hello"))
	require.Len(t, fake.messages, 1)
	assert.Equal(t, "42", fake.messages[0]["chat_id"])
	assert.Equal(t, "HTML", fake.messages[0]["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	fake := &fakeTelegram{fail: 1}
	n := newTestNotifier(t, fake)

	require.NoError(t, n.SendWithRetry(context.Background(), "hello", 2))
	assert.Len(t, fake.messages, 1)
}

func TestSendWithRetryCancelled(t *testing.T) {
	fake := &fakeTelegram{fail: 5}
	n := newTestNotifier(t, fake)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.SendWithRetry(ctx, "hello", 3), context.Canceled)
}

func TestSendPhoto(t *testing.T) {
	fake := &fakeTelegram{}
	n := newTestNotifier(t, fake)
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG"), 0644))

	require.NoError(t, n.SendPhoto(path, "BTC/USDT"))
	assert.Equal(t, []string{"chart.png|BTC/USDT"}, fake.photos)

	assert.Error(t, n.SendPhoto(filepath.Join(t.TempDir(), "missing.png"), ""))
}

func TestStartPolling(t *testing.T) {
	fake := &fakeTelegram{
		updates: `{"ok":true,"result":[{"update_id":7,"message":{"text":" /price "}},{"update_id":8}]}`,
	}
	n := newTestNotifier(t, fake)

	got := make(chan string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.StartPolling(ctx, func(cmd string) Reply {
		got <- cmd
		return Reply{Text: "BTC/USDT: 1.0"}
	})

	select {
	case cmd := <-got:
		assert.Equal(t, "/price", cmd)
	case <-time.After(5 * time.Second):
		t.Fatal("command not delivered")
	}

	assert.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.messages) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSendWithRetryNoWaitAfterLastAttempt(t *testing.T) {
	fake := &fakeTelegram{fail: 5}
	n := newTestNotifier(t, fake)

	start := time.Now()
	err := n.SendWithRetry(context.Background(), "hello", 0)
	assert.ErrorContains(t, err, "all 1 retries exhausted")
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
