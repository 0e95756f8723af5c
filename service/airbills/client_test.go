package airbills

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/brojonat/framprelay/service/upstream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPayer = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func validRequest() AirtimeRequest {
	return AirtimeRequest{
		PhoneNumber: "08012345678",
		Amount:      decimal.NewFromInt(500),
		Fee:         decimal.RequireFromString("0.5"),
		Token:       "USDC",
		UserAddress: testPayer,
	}
}

func TestAirtimeTransaction_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/airtime/paypoint", r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get("secretkey"))

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `"08012345678"`, string(body["phoneNumber"]))
		assert.JSONEq(t, `500`, string(body["amount"]))
		assert.JSONEq(t, `0.5`, string(body["fee"]))
		assert.JSONEq(t, `"USDC"`, string(body["token"]))
		assert.JSONEq(t, `"`+testPayer+`"`, string(body["user_address"]))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ix":"AQID","id":"pay-123"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "s3cret", nil, nil, nil)
	res, err := c.AirtimeTransaction(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "AQID", res.TxBase64)
	assert.Equal(t, "pay-123", res.ID)
}

func TestAirtimeTransaction_ValidationMakesNoCalls(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewClient(server.URL, "s3cret", nil, nil, nil)

	tests := []struct {
		name   string
		mutate func(*AirtimeRequest)
		field  string
	}{
		{"missing phone", func(r *AirtimeRequest) { r.PhoneNumber = "" }, "phoneNumber"},
		{"blank phone", func(r *AirtimeRequest) { r.PhoneNumber = "   " }, "phoneNumber"},
		{"zero amount", func(r *AirtimeRequest) { r.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(r *AirtimeRequest) { r.Amount = decimal.NewFromInt(-1) }, "amount"},
		{"negative fee", func(r *AirtimeRequest) { r.Fee = decimal.NewFromInt(-1) }, "fee"},
		{"missing payer", func(r *AirtimeRequest) { r.UserAddress = "" }, "userAddress"},
		{"invalid payer", func(r *AirtimeRequest) { r.UserAddress = "not-a-key" }, "userAddress"},
		{"missing token", func(r *AirtimeRequest) { r.Token = "" }, "token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := c.AirtimeTransaction(context.Background(), req)
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	assert.Equal(t, int32(0), calls.Load())
}

func TestAirtimeTransaction_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing ix", `{"id":"pay-123"}`},
		{"missing id", `{"ix":"AQID"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, "s3cret", nil, nil, nil)
			_, err := c.AirtimeTransaction(context.Background(), validRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, upstream.ErrMissingField)
		})
	}
}

func TestAirtimeTransaction_VendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid secret key"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "wrong", nil, nil, nil)
	_, err := c.AirtimeTransaction(context.Background(), validRequest())
	require.Error(t, err)

	var upErr *upstream.Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "airbills", upErr.Service)
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Equal(t, "invalid secret key", upErr.Message)
}

func TestConfirm_PassesThroughResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/airtime/paypoint/complete", r.URL.Path)
		assert.Equal(t, "s3cret", r.Header.Get("secretkey"))

		var body confirmRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pay-123", body.ID)

		w.Write([]byte(`{"status":"completed","reference":"R-9","extra":{"n":1}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "s3cret", nil, nil, nil)
	raw, err := c.Confirm(context.Background(), "pay-123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"completed","reference":"R-9","extra":{"n":1}}`, string(raw))
}

func TestConfirm_EmptyID(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewClient(server.URL, "s3cret", nil, nil, nil)
	_, err := c.Confirm(context.Background(), "")

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "id", vErr.Field)
	assert.Equal(t, int32(0), calls.Load())
}
