// Package auth manages the OAuth2 credential lifecycle for the Microsoft
// To Do integration.
//
// It covers the authorization-code flow against the Microsoft identity
// platform, persistence of the resulting token to a single JSON file, silent
// refresh ahead of expiry, and the controlled fallback to a fresh
// authorization when the provider reports the refresh token itself is no
// longer usable (invalid_grant).
//
// The session requests a broader scope set during authorization than it uses
// afterwards: offline_access is only needed to be granted a refresh token,
// so routine token operations drop it.
package auth
