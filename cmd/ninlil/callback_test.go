package main

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "ninlil/pkg/errors"
)

func TestCallbackListenerReceivesVerifier(t *testing.T) {
	cl, err := listenForCallback("http://127.0.0.1:0/callback")
	require.NoError(t, err)

	go func() {
		resp, err := http.Get("http://" + cl.Addr() + "/callback?oauth_token=req-token&oauth_verifier=verifier")
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, verifier, err := cl.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-token", token)
	assert.Equal(t, "verifier", verifier)
}

func TestCallbackListenerReportsDenial(t *testing.T) {
	cl, err := listenForCallback("http://127.0.0.1:0/callback")
	require.NoError(t, err)

	go func() {
		resp, err := http.Get("http://" + cl.Addr() + "/callback?denied=req-token")
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err = cl.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestCallbackListenerTimesOut(t *testing.T) {
	cl, err := listenForCallback("http://localhost:0/callback")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err = cl.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestListenForCallbackRejectsRemoteHosts(t *testing.T) {
	for _, callbackURL := range []string{
		"https://localhost:8765/callback",
		"http://example.com/callback",
		"http://10.0.0.1:8765/callback",
		"://bad",
	} {
		_, err := listenForCallback(callbackURL)
		assert.Error(t, err, callbackURL)
	}
}
