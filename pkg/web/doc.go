// Package web serves the browser flow for building archives.
//
// A form POST to /archive records the blog and date range against the
// browser's session cookie, starts the OAuth handshake and redirects to
// Tumblr. The provider's redirect to /archive/callback finishes the
// handshake, builds the archive under the job registry and answers with the
// job's status and download URL.
package web
