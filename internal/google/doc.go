// Package google provides OAuth2 authentication and token caching for the
// Google Docs API.
//
// The client secrets come from a credentials.json file downloaded from the
// Google Cloud console. The token is cached as JSON (mode 0600), by default
// under the user cache directory (~/.cache/inboxdraft/docs.token). TokenSource
// uses a valid cached token, refreshes an expired one, and falls back to the
// interactive LoopbackAuthorizer only when neither works. Refreshed tokens are
// written back to the cache.
package google
