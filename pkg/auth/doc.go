// Package auth persists the OAuth token pairs the CLI obtains, one per blog.
//
// Manager chains the system keyring, an AES-GCM encrypted file and the
// environment (NINLIL_OAUTH_TOKEN / NINLIL_OAUTH_TOKEN_SECRET). The archive
// pipeline itself never touches this package; it only receives a signed client.
package auth
