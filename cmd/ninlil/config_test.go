package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ninlil/pkg/config"
)

func TestMaskedHidesConsumerSecret(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tumblr.ConsumerKey = "key"
	cfg.Tumblr.ConsumerSecret = "secret"

	out := masked(cfg)

	assert.Equal(t, "key", out.Tumblr.ConsumerKey)
	assert.Equal(t, "********", out.Tumblr.ConsumerSecret)
	assert.Equal(t, "secret", cfg.Tumblr.ConsumerSecret)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"archive", "delete", "serve", "auth", "config"} {
		assert.True(t, names[want], want)
	}
}
