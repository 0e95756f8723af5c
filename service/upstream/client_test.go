package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "abc", r.URL.Query().Get("inputMint"))
		assert.Equal(t, "keep", r.URL.Query().Get("existing"))
		assert.Equal(t, "tok", r.Header.Get("token"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"outAmount": "42"})
	}))
	defer server.Close()

	c := NewClient("jupiter", nil, nil, nil)
	header := http.Header{}
	header.Set("token", "tok")

	var out struct {
		OutAmount string `json:"outAmount"`
	}
	err := c.GetJSON(context.Background(), "quote", server.URL+"/quote?existing=keep", url.Values{"inputMint": {"abc"}}, header, &out)
	require.NoError(t, err)
	assert.Equal(t, "42", out.OutAmount)
}

func TestPostJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "s3cret", r.Header.Get("secretkey"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc-123", body["id"])

		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer server.Close()

	c := NewClient("airbills", nil, nil, nil)
	header := http.Header{}
	header.Set("secretkey", "s3cret")

	var out map[string]bool
	err := c.PostJSON(context.Background(), "confirm", server.URL, map[string]string{"id": "abc-123"}, header, &out)
	require.NoError(t, err)
	assert.True(t, out["success"])
}

func TestDo_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid mint"})
	}))
	defer server.Close()

	c := NewClient("jupiter", nil, nil, nil)
	err := c.GetJSON(context.Background(), "quote", server.URL, nil, nil, nil)
	require.Error(t, err)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "jupiter", upErr.Service)
	assert.Equal(t, "quote", upErr.Op)
	assert.Equal(t, http.StatusBadRequest, upErr.StatusCode)
	assert.Equal(t, "invalid mint", upErr.Message)
	assert.Contains(t, err.Error(), "invalid mint")
}

func TestDo_MessageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad secret"}`))
	}))
	defer server.Close()

	c := NewClient("airbills", nil, nil, nil)
	err := c.PostJSON(context.Background(), "airtime", server.URL, struct{}{}, nil, nil)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "bad secret", upErr.Message)
}

func TestDo_PlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("gateway down\n"))
	}))
	defer server.Close()

	c := NewClient("solscan", nil, nil, nil)
	err := c.GetJSON(context.Background(), "status", server.URL, nil, nil, nil)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
	assert.Equal(t, "gateway down", upErr.Message)
}

func TestDo_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	c := NewClient("jupiter", nil, nil, nil)
	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "quote", server.URL, nil, nil, &out)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusOK, upErr.StatusCode)
	assert.Contains(t, err.Error(), "jupiter quote: status 200")
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestDo_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	c := NewClient("jupiter", nil, nil, nil)
	err := c.GetJSON(context.Background(), "quote", serverURL, nil, nil, nil)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Zero(t, upErr.StatusCode)
	assert.Contains(t, err.Error(), "request failed")
}

func TestMissingField(t *testing.T) {
	err := MissingField("jupiter", "swap", "swapTransaction")

	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Contains(t, err.Error(), "swapTransaction")
	assert.Contains(t, err.Error(), "jupiter swap")
}

func TestErrorString(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"status and message", &Error{Service: "airbills", Op: "airtime", StatusCode: 400, Message: "bad phone", Err: cause}, "airbills airtime: status 400: bad phone"},
		{"status and cause", &Error{Service: "jupiter", Op: "quote", StatusCode: 200, Err: cause}, "jupiter quote: status 200: boom"},
		{"status only", &Error{Service: "jupiter", Op: "quote", StatusCode: 503}, "jupiter quote: status 503"},
		{"cause only", &Error{Service: "solscan", Op: "status", Err: cause}, "solscan status: boom"},
		{"empty", &Error{Service: "solscan", Op: "status"}, "solscan status: request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMalformedPayload(t *testing.T) {
	cause := errors.New("illegal base64 data at input byte 0")
	err := MalformedPayload("airbills", "airtime", "ix", cause)

	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrMissingField))
	assert.Equal(t, "airbills airtime: malformed ix in response: illegal base64 data at input byte 0", err.Error())
}
