package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"biosync/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL: server.URL,
		Token:   "secret",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://bad url with spaces"}, zap.NewNop())
	require.Error(t, err)
}

func TestFetch_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tool/trimal/", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"biotoolsID": "trimal"})
	}))

	record, err := client.Fetch(context.Background(), "trimal")
	require.NoError(t, err)
	assert.Equal(t, "trimal", record.ID())
}

func TestFetch_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.Fetch(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrToolNotFound)
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeNotFound, code)
}

func TestFetch_ServerFault(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html><body><pre class="exception_value">database is on fire</pre></body></html>`))
	}))

	_, err := client.Fetch(context.Background(), "trimal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is on fire")
	code, _ := domain.CodeFrom(err)
	assert.Equal(t, domain.CodeInternal, code)
}

func TestValidateCreate_Rejection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tool/validate/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"homepage": ["Enter a valid URL."]}`))
	}))

	err := client.ValidateCreate(context.Background(), domain.ToolRecord{"biotoolsID": "trimal"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Enter a valid URL.")
	code, _ := domain.CodeFrom(err)
	assert.Equal(t, domain.CodeRejected, code)
}

func TestCreate_SendsRecord(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tool/", r.URL.Path)

		var record map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&record))
		assert.Equal(t, "trimal", record["biotoolsID"])

		w.WriteHeader(http.StatusCreated)
	}))

	err := client.Create(context.Background(), domain.ToolRecord{"biotoolsID": "trimal"})
	require.NoError(t, err)
}

func TestValidateUpdate_UsesToolValidatePath(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/tool/trimal/validate/", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.ValidateUpdate(context.Background(), domain.ToolRecord{"biotoolsID": "trimal"})
	require.NoError(t, err)
}

func TestUpdate_Unauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/tool/trimal/", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "Invalid token."}`))
	}))

	err := client.Update(context.Background(), domain.ToolRecord{"biotoolsID": "trimal"})
	require.Error(t, err)
	code, _ := domain.CodeFrom(err)
	assert.Equal(t, domain.CodeUnauthenticated, code)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  bool
		wantGone bool
	}{
		{name: "deleted", status: http.StatusNoContent},
		{name: "already gone", status: http.StatusNotFound, wantErr: true, wantGone: true},
		{name: "forbidden", status: http.StatusForbidden, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				w.WriteHeader(tc.status)
			}))

			err := client.Delete(context.Background(), "trimal")
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantGone, errors.Is(err, domain.ErrToolNotFound))
		})
	}
}

type countingObserver struct {
	calls []string
}

func (c *countingObserver) ObserveRegistryRequest(method string, status int) {
	c.calls = append(c.calls, method)
}

func TestClient_Observer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	observer := &countingObserver{}
	client, err := NewClient(Config{BaseURL: server.URL, Observer: observer}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, client.Delete(context.Background(), "trimal"))
	assert.Equal(t, []string{http.MethodDelete}, observer.calls)
}

func TestClient_NoTokenNoAuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL}, zap.NewNop())
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), "trimal")
	require.ErrorIs(t, err, domain.ErrToolNotFound)
}
