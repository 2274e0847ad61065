package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caixinha/internal/assistant"
	"caixinha/internal/core"
	"caixinha/internal/ledger"
	"caixinha/internal/log"
)

type stubGenerator struct {
	mu      sync.Mutex
	answer  string
	calls   int
	release chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.release != nil {
		<-g.release
	}
	return g.answer, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type testEnv struct {
	srv    *Server
	ledger *ledger.Service
	chat   *assistant.Session
	gen    *stubGenerator
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	gen := &stubGenerator{answer: "Os sorteios acontecem em Maio e Agosto."}
	svc := ledger.NewService(context.Background(), core.SeedRoster(), core.DefaultReferenceDate, nil, log.Discard())
	chat := assistant.NewSession(assistant.New(gen, time.Second, log.Discard()))

	o := Options{Addr: ":0", Ledger: svc, Chat: chat, Logger: log.Discard()}
	for _, fn := range opts {
		fn(&o)
	}
	srv := NewServer(o)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, ledger: svc, chat: chat, gen: gen}
}

func (e *testEnv) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Assistente de Caixinha Financeira")
	assert.Contains(t, body, "Bruno Costa")
	assert.Contains(t, body, "R$ 880,00", "late debt card")
	assert.Contains(t, body, "Liberação de Empréstimos")
	assert.Contains(t, body, assistant.Greeting)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.ReadinessChecks = map[string]ReadinessCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		}
	})

	rr := env.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	checks := resp["checks"].(map[string]any)
	assert.Contains(t, checks["redis"], "connection refused")
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age")
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/nao-existe", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAddMember(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/members", url.Values{"name": {"Fernanda Rocha"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Fernanda Rocha")
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "roster:changed")
	assert.Equal(t, 6, env.ledger.Snapshot().Len())

	t.Run("blank name is a no-op", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/members", url.Values{"name": {"   "}})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("HX-Trigger"))
		assert.Equal(t, 6, env.ledger.Snapshot().Len())
	})
}

func TestMemberToggles(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/members/5/payment", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	m, _ := env.ledger.Snapshot().Find(5)
	assert.Equal(t, core.PaymentPaid, m.PaymentStatus)

	rr = env.do(http.MethodPost, "/members/1/fine", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	m, _ = env.ledger.Snapshot().Find(1)
	assert.True(t, m.HasFine())

	t.Run("unknown member is a no-op", func(t *testing.T) {
		before := env.ledger.Members()
		rr := env.do(http.MethodPost, "/members/99/payment", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("HX-Trigger"))
		assert.Equal(t, before, env.ledger.Members())
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := env.do(http.MethodPost, "/members/abc/payment", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodDelete, "/members/4", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Daniela Souza")
	_, ok := env.ledger.Snapshot().Find(4)
	assert.False(t, ok)
}

func TestLoanLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPut, "/members/1/loan", url.Values{"amount": {"1.234,50"}, "due_date": {"2024-11-10"}})
	require.Equal(t, http.StatusOK, rr.Code)
	m, _ := env.ledger.Snapshot().Find(1)
	assert.False(t, m.HasLoan(), "thousands separators are rejected")

	rr = env.do(http.MethodPut, "/members/1/loan", url.Values{"amount": {"500,00"}, "due_date": {"2024-11-10"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "roster:changed")
	m, _ = env.ledger.Snapshot().Find(1)
	require.True(t, m.HasLoan())
	assert.Equal(t, core.Reais(500), m.Loan.Amount)
	assert.Equal(t, core.LoanPending, m.Loan.Status)

	// replacing a late loan resets it to pending
	rr = env.do(http.MethodPut, "/members/2/loan", url.Values{"amount": {"500"}, "due_date": {"2024-05-10"}})
	require.Equal(t, http.StatusOK, rr.Code)
	m, _ = env.ledger.Snapshot().Find(2)
	assert.Equal(t, core.LoanPending, m.Loan.Status)
	assert.True(t, m.Loan.LateFee.IsZero())

	rr = env.do(http.MethodDelete, "/members/2/loan", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	m, _ = env.ledger.Snapshot().Find(2)
	assert.False(t, m.HasLoan())

	t.Run("missing due date is a no-op", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/members/4/loan", url.Values{"amount": {"100"}})
		assert.Equal(t, http.StatusOK, rr.Code)
		m, _ := env.ledger.Snapshot().Find(4)
		assert.False(t, m.HasLoan())
	})
}

func TestSummaryPartialAndAPI(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/ui/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Arrecadado no Mês")
	assert.Contains(t, rr.Body.String(), "R$ 300,00")

	rr = env.do(http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var sum apiSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, apiSummary{
		TotalMembers:       5,
		PaidCount:          3,
		PendingCount:       2,
		CollectedThisMonth: "300.00",
		TotalLoaned:        "800.00",
		LateDebt:           "880.00",
	}, sum)
}

func TestAPIRosterAndRules(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/roster", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var members []apiMember
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &members))
	require.Len(t, members, 5)
	bruno := members[1]
	assert.Equal(t, "Bruno Costa", bruno.Name)
	assert.Equal(t, "20.00", bruno.Fine)
	require.NotNil(t, bruno.Loan)
	assert.Equal(t, "late", bruno.Loan.Status)
	assert.Equal(t, "50.00", bruno.Loan.LateFee)
	assert.Equal(t, "550.00", bruno.Loan.TotalOwed)

	rr = env.do(http.MethodGet, "/api/rules", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var rules []core.Rule
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rules))
	assert.Len(t, rules, 6)
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/chat", url.Values{"question": {"Quando são os sorteios?"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Quando são os sorteios?")
	assert.Contains(t, rr.Body.String(), "Os sorteios acontecem em Maio e Agosto.")

	rr = env.do(http.MethodPost, "/chat", url.Values{"question": {"  "}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 1, env.gen.callCount())

	rr = env.do(http.MethodGet, "/api/chat", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Messages []assistant.ChatMessage `json:"messages"`
		Busy     bool                    `json:"busy"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 3)
	assert.False(t, resp.Busy)
}

func TestChat_BusyWhileInFlight(t *testing.T) {
	env := newTestEnv(t)
	env.gen.release = make(chan struct{})

	first := make(chan int)
	go func() {
		first <- env.do(http.MethodPost, "/chat", url.Values{"question": {"Primeira"}}).Code
	}()

	require.Eventually(t, env.chat.Busy, time.Second, 5*time.Millisecond)

	rr := env.do(http.MethodPost, "/chat", url.Values{"question": {"Segunda"}})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "show-notification")

	close(env.gen.release)
	assert.Equal(t, http.StatusOK, <-first)
	assert.False(t, env.chat.Busy())
	assert.Equal(t, 1, env.gen.callCount())
}

func TestRateLimitOnWrites(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/members/1/payment", nil).Code)
	}
	rr := env.do(http.MethodPost, "/members/1/payment", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// reads are never limited
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/roster", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.AllowedOrigins = []string{"https://caixinha.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/members", nil)
	req.Header.Set("Origin", "https://caixinha.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, "https://caixinha.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatFormShowsPendingExchange(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/ui/chat", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="chat-form"`)

	rr = env.do(http.MethodGet, "/static/app.js", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	js := rr.Body.String()
	assert.Contains(t, js, "htmx:beforeRequest")
	assert.Contains(t, js, "chat-form")
	assert.Contains(t, js, "message-pending")
}

func TestReadyzCountsSuspiciousRequests(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/.git/config", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/", nil).Code)

	rr := env.do(http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Checks struct {
			RateLimiter struct {
				SuspiciousRequests int64 `json:"suspicious_requests"`
			} `json:"rate_limiter"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Checks.RateLimiter.SuspiciousRequests)
}
