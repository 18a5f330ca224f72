package assistant

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrGuidelinesUnavailable is returned when the guidelines cannot be used
	ErrGuidelinesUnavailable = errors.New("guidelines unavailable")

	// ErrGuidelinesNotConfigured is the ErrGuidelinesUnavailable variant for a
	// missing document fetcher or document id
	ErrGuidelinesNotConfigured = fmt.Errorf("%w: not configured", ErrGuidelinesUnavailable)
)

// DocumentFetcher returns the plain text of a document
type DocumentFetcher interface {
	GetDocumentText(ctx context.Context, documentID string) (string, error)
}

// FetchGuidelines reads the guidelines document. Every failure wraps
// ErrGuidelinesUnavailable.
func FetchGuidelines(ctx context.Context, fetcher DocumentFetcher, docID string) (string, error) {
	if fetcher == nil || docID == "" {
		return "", ErrGuidelinesNotConfigured
	}

	text, err := fetcher.GetDocumentText(ctx, docID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGuidelinesUnavailable, err)
	}
	return text, nil
}
