package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("creates client with default config", func(t *testing.T) {
		client := NewClient(DefaultClientConfig())

		assert.NotNil(t, client)
		assert.Equal(t, 30*time.Second, client.GetTimeout())
		assert.Equal(t, 3, client.GetMaxRetries())
	})

	t.Run("uses defaults for zero values", func(t *testing.T) {
		client := NewClient(ClientConfig{})

		assert.Equal(t, 30*time.Second, client.GetTimeout())
		assert.Equal(t, 3, client.GetMaxRetries())
	})
}

func TestClient_Get(t *testing.T) {
	t.Run("successful GET request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/test", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		resp, err := client.Get(context.Background(), server.URL+"/test")

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, string(resp.Body()), "ok")
	})

	t.Run("non-2xx statuses are returned, not errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "Video not found"}`))
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		resp, err := client.Get(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
		assert.Contains(t, string(resp.Body()), "Video not found")
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{Timeout: 10 * time.Second, MaxRetries: 1})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Get(ctx, server.URL)
		require.Error(t, err)
	})

	t.Run("retries on server errors", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusInternalServerError)
			} else {
				w.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := NewClient(ClientConfig{Timeout: 10 * time.Second, MaxRetries: 3})
		resp, err := client.Get(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, 3, attempts)
	})
}

func TestClient_Post(t *testing.T) {
	t.Run("sends JSON body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "abc123")
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		resp, err := client.Post(context.Background(), server.URL, map[string]string{"video_id": "abc123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode())
	})
}

func TestClient_Delete(t *testing.T) {
	t.Run("sends JSON body with DELETE", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "DELETE", r.Method)
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "abc123")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		resp, err := client.Delete(context.Background(), server.URL, map[string]string{"video_id": "abc123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
	})

	t.Run("omits body when nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.Empty(t, body)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		_, err := client.Delete(context.Background(), server.URL, nil)
		require.NoError(t, err)
	})
}

func TestClient_PostFile(t *testing.T) {
	t.Run("sends multipart file and form fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "user-1", r.FormValue("user_id"))

			file, header, err := r.FormFile("frame")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "frame.jpg", header.Filename)

			data, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, "jpegdata", string(data))

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		resp, err := client.PostFile(context.Background(), server.URL, "frame", "frame.jpg",
			strings.NewReader("jpegdata"), map[string]string{"user_id": "user-1"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
	})
}
