// Package oauth runs Tumblr's three-legged OAuth 1.0a handshake on top of
// github.com/dghubble/oauth1 and produces signed HTTP clients for the API.
//
// The handshake spans two requests: Start returns a Pending whose secret the
// caller keeps (PendingStore does this for the web server) until the provider
// redirects back with a verifier for Complete.
package oauth
