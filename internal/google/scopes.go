package google

import docs "google.golang.org/api/docs/v1"

// DocsScopes are the OAuth scopes requested for reading the guidelines document.
// Read-only access to Google Docs is all the server needs.
var DocsScopes = []string{
	docs.DocumentsReadonlyScope,
}
