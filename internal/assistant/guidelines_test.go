package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchGuidelines(t *testing.T) {
	docs := &fakeDocuments{text: "Be brief."}

	text, err := FetchGuidelines(context.Background(), docs, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", text)
	assert.Equal(t, 1, docs.calls)
}

func TestFetchGuidelines_NotConfigured(t *testing.T) {
	_, err := FetchGuidelines(context.Background(), nil, "doc-1")
	require.ErrorIs(t, err, ErrGuidelinesNotConfigured)
	require.ErrorIs(t, err, ErrGuidelinesUnavailable)

	docs := &fakeDocuments{text: "unused"}
	_, err = FetchGuidelines(context.Background(), docs, "")
	require.ErrorIs(t, err, ErrGuidelinesNotConfigured)
	assert.Equal(t, 0, docs.calls)
}

func TestFetchGuidelines_Failure(t *testing.T) {
	cause := errors.New("403 forbidden")
	_, err := FetchGuidelines(context.Background(), &fakeDocuments{err: cause}, "doc-1")

	require.ErrorIs(t, err, ErrGuidelinesUnavailable)
	require.ErrorIs(t, err, cause)
	assert.False(t, errors.Is(err, ErrGuidelinesNotConfigured))
}
