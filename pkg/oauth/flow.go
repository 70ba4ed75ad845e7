package oauth

import (
	"context"
	"net/http"

	"github.com/dghubble/oauth1"

	"ninlil/pkg/config"
	errs "ninlil/pkg/errors"
	"ninlil/pkg/logger"
)

// Credentials is the final token pair granted to ninlil by a blog owner
type Credentials struct {
	Token       string
	TokenSecret string
}

// Pending is a handshake waiting for the user to authorize at AuthorizationURL.
// RequestSecret must stay server-side until Complete is called.
type Pending struct {
	RequestToken     string
	RequestSecret    string
	AuthorizationURL string
}

// Flow runs the three-legged OAuth 1.0a handshake against Tumblr
type Flow struct {
	config     oauth1.Config
	httpClient *http.Client
	logger     logger.Logger
}

// NewFlow creates a handshake runner from the consumer settings. httpClient
// is used for token requests and as the transport under signed clients.
func NewFlow(tc config.TumblrConfig, httpClient *http.Client, log logger.Logger) (*Flow, error) {
	if tc.ConsumerKey == "" || tc.ConsumerSecret == "" {
		return nil, errs.AuthError("consumer key and secret are required", nil)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Flow{
		config: oauth1.Config{
			ConsumerKey:    tc.ConsumerKey,
			ConsumerSecret: tc.ConsumerSecret,
			CallbackURL:    tc.CallbackURL,
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: tc.RequestTokenURL,
				AuthorizeURL:    tc.AuthorizeURL,
				AccessTokenURL:  tc.AccessTokenURL,
			},
		},
		httpClient: httpClient,
		logger:     log,
	}, nil
}

// WithCallback returns a copy of the flow that sends users back to callbackURL
func (f *Flow) WithCallback(callbackURL string) *Flow {
	clone := *f
	clone.config.CallbackURL = callbackURL
	return &clone
}

// CallbackURL returns where the provider redirects after authorization
func (f *Flow) CallbackURL() string {
	return f.config.CallbackURL
}

// Start obtains a request token and the URL the user must visit to approve it
func (f *Flow) Start(ctx context.Context) (*Pending, error) {
	cfg := f.boundConfig(ctx)

	requestToken, requestSecret, err := cfg.RequestToken()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.AuthError("failed to obtain request token", err)
	}

	authURL, err := cfg.AuthorizationURL(requestToken)
	if err != nil {
		return nil, errs.AuthError("failed to build authorization URL", err)
	}

	f.logger.DebugWithFields("OAuth handshake started", map[string]interface{}{
		"callback_url": f.config.CallbackURL,
	})

	return &Pending{
		RequestToken:     requestToken,
		RequestSecret:    requestSecret,
		AuthorizationURL: authURL.String(),
	}, nil
}

// Complete exchanges an authorized request token and its verifier for the final credentials
func (f *Flow) Complete(ctx context.Context, requestToken, requestSecret, verifier string) (Credentials, error) {
	if requestToken == "" || verifier == "" {
		return Credentials{}, errs.AuthError("authorization callback is missing the token or verifier", nil)
	}

	accessToken, accessSecret, err := f.boundConfig(ctx).AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Credentials{}, ctxErr
		}
		return Credentials{}, errs.AuthError("failed to exchange verifier for access token", err)
	}

	f.logger.Debug("OAuth handshake completed")
	return Credentials{Token: accessToken, TokenSecret: accessSecret}, nil
}

// HTTPClient returns a client that signs every request with creds
func (f *Flow) HTTPClient(ctx context.Context, creds Credentials) *http.Client {
	ctx = context.WithValue(ctx, oauth1.HTTPClient, f.httpClient)
	signed := f.config.Client(ctx, oauth1.NewToken(creds.Token, creds.TokenSecret))
	signed.Timeout = f.httpClient.Timeout
	return signed
}

// ParseCallback extracts the request token and verifier from the provider's
// redirect. A user who declined authorization yields an auth error.
func ParseCallback(r *http.Request) (requestToken, verifier string, err error) {
	if denied := r.URL.Query().Get("denied"); denied != "" {
		return "", "", errs.AuthError("authorization was denied by the user", nil)
	}

	requestToken, verifier, err = oauth1.ParseAuthorizationCallback(r)
	if err != nil {
		return "", "", errs.AuthError("invalid authorization callback", err)
	}
	return requestToken, verifier, nil
}

// boundConfig returns a copy of the oauth1 config whose token requests
// carry ctx for cancellation
func (f *Flow) boundConfig(ctx context.Context) *oauth1.Config {
	cfg := f.config
	client := *f.httpClient
	client.Transport = &contextTransport{ctx: ctx, base: f.httpClient.Transport}
	cfg.HTTPClient = &client
	return &cfg
}

type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	return base.RoundTrip(req.WithContext(t.ctx))
}
