package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninlil/pkg/config"
	errs "ninlil/pkg/errors"
	"ninlil/pkg/logger"
)

// provider fakes Tumblr's OAuth endpoints and a signed API resource
type provider struct {
	*httptest.Server

	mu         sync.Mutex
	authHeader string
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	p := &provider{}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Authorization"), `oauth_consumer_key="ck"`) {
			http.Error(w, "bad consumer", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true"))
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.Contains(auth, `oauth_verifier="good-verifier"`) || !strings.Contains(auth, `oauth_token="req-token"`) {
			http.Error(w, "oauth_problem=token_rejected", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=final-token&oauth_token_secret=final-secret"))
	})
	mux.HandleFunc("/v2/user/info", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.authHeader = r.Header.Get("Authorization")
		p.mu.Unlock()
		_, _ = w.Write([]byte(`{"meta":{"status":200,"msg":"OK"}}`))
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func (p *provider) tumblrConfig() config.TumblrConfig {
	return config.TumblrConfig{
		ConsumerKey:     "ck",
		ConsumerSecret:  "cs",
		RequestTokenURL: p.URL + "/oauth/request_token",
		AuthorizeURL:    p.URL + "/oauth/authorize",
		AccessTokenURL:  p.URL + "/oauth/access_token",
		CallbackURL:     "http://localhost:8765/callback",
	}
}

func newTestFlow(t *testing.T, p *provider) *Flow {
	t.Helper()
	flow, err := NewFlow(p.tumblrConfig(), p.Client(), logger.NewNopLogger())
	require.NoError(t, err)
	return flow
}

func TestNewFlowRequiresConsumer(t *testing.T) {
	_, err := NewFlow(config.TumblrConfig{}, nil, logger.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestHandshake(t *testing.T) {
	p := newProvider(t)
	flow := newTestFlow(t, p)

	pending, err := flow.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "req-token", pending.RequestToken)
	assert.Equal(t, "req-secret", pending.RequestSecret)

	authURL, err := url.Parse(pending.AuthorizationURL)
	require.NoError(t, err)
	assert.Equal(t, "/oauth/authorize", authURL.Path)
	assert.Equal(t, "req-token", authURL.Query().Get("oauth_token"))

	creds, err := flow.Complete(context.Background(), pending.RequestToken, pending.RequestSecret, "good-verifier")
	require.NoError(t, err)
	assert.Equal(t, Credentials{Token: "final-token", TokenSecret: "final-secret"}, creds)
}

func TestCompleteRejectedVerifier(t *testing.T) {
	p := newProvider(t)
	flow := newTestFlow(t, p)

	_, err := flow.Complete(context.Background(), "req-token", "req-secret", "bad-verifier")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))

	_, err = flow.Complete(context.Background(), "req-token", "req-secret", "")
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestStartHonoursCancellation(t *testing.T) {
	p := newProvider(t)
	flow := newTestFlow(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := flow.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithCallback(t *testing.T) {
	p := newProvider(t)
	flow := newTestFlow(t, p)

	web := flow.WithCallback("https://ninlil.example/archive/callback")
	assert.Equal(t, "https://ninlil.example/archive/callback", web.CallbackURL())
	assert.Equal(t, "http://localhost:8765/callback", flow.CallbackURL())
}

func TestHTTPClientSignsRequests(t *testing.T) {
	p := newProvider(t)
	flow := newTestFlow(t, p)

	client := flow.HTTPClient(context.Background(), Credentials{Token: "final-token", TokenSecret: "final-secret"})
	resp, err := client.Get(p.URL + "/v2/user/info")
	require.NoError(t, err)
	resp.Body.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Contains(t, p.authHeader, `oauth_token="final-token"`)
	assert.Contains(t, p.authHeader, `oauth_signature=`)
}

func TestParseCallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/callback?oauth_token=req-token&oauth_verifier=v", nil)
	token, verifier, err := ParseCallback(req)
	require.NoError(t, err)
	assert.Equal(t, "req-token", token)
	assert.Equal(t, "v", verifier)

	req = httptest.NewRequest(http.MethodGet, "/callback?denied=req-token", nil)
	_, _, err = ParseCallback(req)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))

	req = httptest.NewRequest(http.MethodGet, "/callback", nil)
	_, _, err = ParseCallback(req)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}
