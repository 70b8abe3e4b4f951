package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		msg  pkghttp.Message
		want string
	}{
		{"empty", nil, `""`},
		{"single", pkghttp.Message{"User created"}, `"User created"`},
		{"list", pkghttp.Message{"email is required", "name is required"}, `["email is required","name is required"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestMessage_UnmarshalJSON(t *testing.T) {
	var single pkghttp.Message
	require.NoError(t, json.Unmarshal([]byte(`"one"`), &single))
	assert.Equal(t, pkghttp.Message{"one"}, single)

	var list pkghttp.Message
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &list))
	assert.Equal(t, pkghttp.Message{"a", "b"}, list)

	var bad pkghttp.Message
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteError(w, 400, "test_error", "Test message")

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"test_error","message":"Test message"}`, w.Body.String())
}

func TestWriteError_MultipleMessages(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteBadRequest(w, "email is required", "name is required")

	assert.Equal(t, 400, w.Code)

	var resp pkghttp.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bad_request", resp.Error)
	assert.Equal(t, pkghttp.Message{"email is required", "name is required"}, resp.Message)
	assert.Nil(t, resp.Data)
}

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteData(w, 201, map[string]string{"id": "u1"}, "User created")

	assert.Equal(t, 201, w.Code)
	assert.JSONEq(t, `{"data":{"id":"u1"},"message":"User created"}`, w.Body.String())
}

func TestWriteErrorWithData(t *testing.T) {
	w := httptest.NewRecorder()

	pkghttp.WriteErrorWithData(w, 503, "storage_unavailable", map[string]any{"items": []string{}}, "try again")

	assert.Equal(t, 503, w.Code)
	assert.JSONEq(t, `{"data":{"items":[]},"error":"storage_unavailable","message":"try again"}`, w.Body.String())
}

func TestStatusWriters(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w *httptest.ResponseRecorder)
		status int
		code   string
	}{
		{"unauthorized", func(w *httptest.ResponseRecorder) { pkghttp.WriteUnauthorized(w, "m") }, 401, "unauthorized"},
		{"forbidden", func(w *httptest.ResponseRecorder) { pkghttp.WriteForbidden(w, "m") }, 403, "forbidden"},
		{"not found", func(w *httptest.ResponseRecorder) { pkghttp.WriteNotFound(w, "m") }, 404, "not_found"},
		{"conflict", func(w *httptest.ResponseRecorder) { pkghttp.WriteConflict(w, "m") }, 409, "conflict"},
		{"unprocessable", func(w *httptest.ResponseRecorder) { pkghttp.WriteUnprocessable(w, "m") }, 422, "unprocessable_entity"},
		{"too many", func(w *httptest.ResponseRecorder) { pkghttp.WriteTooManyRequests(w, "m") }, 429, "rate_limit_exceeded"},
		{"unavailable", func(w *httptest.ResponseRecorder) { pkghttp.WriteServiceUnavailable(w, "m") }, 503, "storage_unavailable"},
		{"internal", func(w *httptest.ResponseRecorder) { pkghttp.WriteInternalError(w, "m") }, 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)

			var resp pkghttp.Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, pkghttp.Message{"m"}, resp.Message)
		})
	}
}
