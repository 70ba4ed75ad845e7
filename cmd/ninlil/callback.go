package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"ninlil/pkg/oauth"
)

// callbackResult is what the provider's redirect carried back
type callbackResult struct {
	requestToken string
	verifier     string
	err          error
}

// callbackListener serves the single redirect the provider sends back to a
// local callback URL once the user has approved access
type callbackListener struct {
	listener net.Listener
	server   *http.Server
	results  chan callbackResult
}

// listenForCallback binds the host and port of callbackURL. Only loopback
// callback URLs are accepted.
func listenForCallback(callbackURL string) (*callbackListener, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("invalid callback URL %q: %w", callbackURL, err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("callback URL %q must use http on a local address", callbackURL)
	}
	host := u.Hostname()
	if host != "localhost" {
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			return nil, fmt.Errorf("callback URL %q must point at localhost", callbackURL)
		}
	}

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the authorization callback: %w", err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	cl := &callbackListener{
		listener: listener,
		results:  make(chan callbackResult, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, cl.handle)
	cl.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		_ = cl.server.Serve(listener)
	}()
	return cl, nil
}

// Addr returns the bound address
func (cl *callbackListener) Addr() string {
	return cl.listener.Addr().String()
}

func (cl *callbackListener) handle(w http.ResponseWriter, r *http.Request) {
	token, verifier, err := oauth.ParseCallback(r)

	select {
	case cl.results <- callbackResult{requestToken: token, verifier: verifier, err: err}:
	default:
		http.Error(w, "authorization already received", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintln(w, "Authorization failed. You can close this window.")
		return
	}
	fmt.Fprintln(w, "ninlil is authorized. You can close this window and return to the terminal.")
}

// Wait blocks until the redirect arrives or ctx is done, then stops serving
func (cl *callbackListener) Wait(ctx context.Context) (requestToken, verifier string, err error) {
	defer cl.Close()

	select {
	case res := <-cl.results:
		return res.requestToken, res.verifier, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", fmt.Errorf("timed out waiting for authorization")
		}
		return "", "", ctx.Err()
	}
}

// Close stops the listener
func (cl *callbackListener) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = cl.server.Shutdown(ctx)
}
