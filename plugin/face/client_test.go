package face

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, resp embedResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestClientExtract(t *testing.T) {
	embedding := make([]float32, EmbeddingDim)
	embedding[0] = 0.5
	srv := newTestServer(t, embedResponse{Faces: 1, Embedding: embedding})
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})
	got, err := client.Extract(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Len(t, got, EmbeddingDim)
	assert.Equal(t, float32(0.5), got[0])
}

func TestClientNoFace(t *testing.T) {
	srv := newTestServer(t, embedResponse{Faces: 0})
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})
	_, err := client.Extract(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrNoFaceDetected)
}

func TestClientAmbiguousFace(t *testing.T) {
	srv := newTestServer(t, embedResponse{Faces: 2})
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})
	_, err := client.Extract(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrAmbiguousFace)
}

func TestClientDimensionMismatch(t *testing.T) {
	srv := newTestServer(t, embedResponse{Faces: 1, Embedding: []float32{1, 2, 3}})
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL})
	_, err := client.Extract(context.Background(), []byte("img"))
	assert.Error(t, err)
}

func TestMockExtractorDeterministic(t *testing.T) {
	mock := NewMockExtractor(0)

	a, err := mock.Extract(context.Background(), []byte("same"))
	require.NoError(t, err)
	b, err := mock.Extract(context.Background(), []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := mock.Extract(context.Background(), []byte("other"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestMockExtractorFaceCount(t *testing.T) {
	mock := NewMockExtractor(0)
	mock.FacesFunc = func(image []byte) int { return len(image) }

	_, err := mock.Extract(context.Background(), []byte{})
	assert.ErrorIs(t, err, ErrNoFaceDetected)

	_, err = mock.Extract(context.Background(), []byte("ab"))
	assert.ErrorIs(t, err, ErrAmbiguousFace)
}
