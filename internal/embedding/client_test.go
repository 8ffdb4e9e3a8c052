package embedding

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, dims int, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{URL: srv.URL, Dimensions: dims})
	require.NoError(t, err)
	return c
}

func TestEmbedImage_SendsMultipartItems(t *testing.T) {
	c := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("items")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		assert.Equal(t, "bottle.jpg", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte("image-bytes"), data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[0.1, 0.2, 0.3]]`))
	})

	vec, err := c.EmbedImage(context.Background(), "bottle.jpg", []byte("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedImage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		dims    int
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `boom`, 0, "500"},
		{"not an array", http.StatusOK, `{"vector": [1, 2]}`, 0, "unexpected embedding response shape"},
		{"empty outer", http.StatusOK, `[]`, 0, "empty embedding response"},
		{"empty inner", http.StatusOK, `[[]]`, 0, "empty embedding response"},
		{"wrong dimension", http.StatusOK, `[[1, 2]]`, 3, "2 dimensions, expected 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.dims, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.EmbedImage(context.Background(), "x.jpg", []byte("x"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmbedImage_HonoursContext(t *testing.T) {
	c := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.EmbedImage(ctx, "x.jpg", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
