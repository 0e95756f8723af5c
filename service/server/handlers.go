package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/framprelay/client"
)

const maxRequestBodySize = 1 << 16 // 64KB, requests are a handful of fields

type giftFunc func(ctx context.Context, params client.GiftParams) (*client.TransactionResult, error)

type statusResponse struct {
	Signature string `json:"signature"`
	Success   bool   `json:"success"`
}

// handleGiftToken returns a handler that builds a gift (or fee) swap.
// POST /api/v1/gift, POST /api/v1/fee
func handleGiftToken(build giftFunc, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req client.GiftParams
		if !decodeBody(w, r, &req, logger) {
			return
		}

		res, err := build(r.Context(), req)
		if err != nil {
			writeRelayError(w, err, logger)
			return
		}

		logger.Debug("gift transaction built", "payer", req.WalletPublicKey, "recipient", req.Recipient)
		writeJSON(w, res, http.StatusOK)
	})
}

// handleSendAirtime returns a handler that builds an airtime payment.
// POST /api/v1/airtime
func handleSendAirtime(relayer Relayer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req client.AirtimeParams
		if !decodeBody(w, r, &req, logger) {
			return
		}

		res, err := relayer.SendAirtime(r.Context(), req)
		if err != nil {
			writeRelayError(w, err, logger)
			return
		}

		logger.Debug("airtime transaction built", "id", res.ID, "swapped", res.Swapped)
		writeJSON(w, res, http.StatusOK)
	})
}

// handleConfirmAirtime returns a handler that finalises an airtime payment
// and relays the vendor's response body.
// POST /api/v1/airtime/{id}/confirm
func handleConfirmAirtime(relayer Relayer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		raw, err := relayer.ConfirmAirtime(r.Context(), id)
		if err != nil {
			writeRelayError(w, err, logger)
			return
		}

		logger.Info("airtime confirmed", "id", id)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(raw)
	})
}

// handleTransactionStatus returns a handler that reports whether a submitted
// transaction succeeded. Lookup failures are reported as success=false.
// GET /api/v1/transactions/{signature}/status
func handleTransactionStatus(relayer Relayer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.PathValue("signature")
		if signature == "" {
			writeError(w, "signature is required", http.StatusBadRequest)
			return
		}

		ok := relayer.VerifyTransactionStatus(r.Context(), signature)
		writeJSON(w, statusResponse{Signature: signature, Success: ok}, http.StatusOK)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Debug("failed to decode request", "path", r.URL.Path, "error", err)
		if strings.Contains(err.Error(), "http: request body too large") {
			writeError(w, "request body too large", http.StatusBadRequest)
			return false
		}
		writeError(w, "invalid request body: must be valid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// writeRelayError maps relay errors onto status codes: bad input is the
// caller's fault, anything from an upstream is a bad gateway.
func writeRelayError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var (
		vErr  *client.ValidationError
		upErr *client.UpstreamError
		mbErr *client.MissingBlockhashError
	)
	switch {
	case errors.As(err, &vErr):
		writeError(w, vErr.Error(), http.StatusBadRequest)
	case errors.As(err, &mbErr):
		logger.Warn("upstream returned a transaction without a blockhash", "leg", mbErr.Leg)
		writeError(w, mbErr.Error(), http.StatusBadGateway)
	case errors.As(err, &upErr):
		logger.Warn("upstream call failed", "service", upErr.Service, "operation", upErr.Op, "error", err)
		writeError(w, upErr.Error(), http.StatusBadGateway)
	default:
		logger.Error("relay request failed", "error", err)
		writeError(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
