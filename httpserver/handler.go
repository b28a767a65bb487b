package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ruteri/registrar-controller/api"
	"github.com/ruteri/registrar-controller/interfaces"
	"github.com/ruteri/registrar-controller/registrar"
	"github.com/ruteri/registrar-controller/units"
)

// RequestError provides structured error information for HTTP responses.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...interface{}) *RequestError {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf(format, args...)}
}

// Handler serves the registrar API on top of a Session.
type Handler struct {
	session *registrar.Session
	log     *slog.Logger
}

// NewHandler creates a handler issuing every request through session.
func NewHandler(session *registrar.Session, log *slog.Logger) *Handler {
	return &Handler{
		session: session,
		log:     log,
	}
}

// RegisterRoutes mounts the API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/names/{name}/price", h.HandlePrice)
	r.Get("/api/names/{name}/valid", h.HandleValid)
	r.Get("/api/names/{name}/available", h.HandleAvailable)
	r.Get("/api/commitment-ages", h.HandleCommitmentAges)
	r.Post("/api/commitments", h.HandleMakeCommitment)
	r.Post("/api/tx/commit", h.HandleCommit)
	r.Post("/api/tx/register", h.HandleRegister)
	r.Post("/api/tx/renew", h.HandleRenew)
	r.Post("/api/tx/withdraw", h.HandleWithdraw)
}

// HandlePrice returns the rent price of a name.
//
// URL format: GET /api/names/{name}/price?duration=N
//
// Status codes:
//   - 200 OK: api.PriceResponse
//   - 400 Bad Request: missing or malformed duration
//   - 502 Bad Gateway: the controller call failed or returned garbage
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	durationParam := r.URL.Query().Get("duration")
	if durationParam == "" {
		h.writeError(w, badRequest("missing duration"))
		return
	}
	duration, err := strconv.ParseUint(durationParam, 10, 64)
	if err != nil {
		h.writeError(w, badRequest("invalid duration %q", durationParam))
		return
	}

	price, err := h.session.GetRentPrice(r.Context(), name, duration)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.PriceResponse{
		Name:       name,
		Duration:   duration,
		Price:      price.String(),
		PriceEther: units.FormatBaseUnits(price, units.Ether),
	})
}

// HandleValid reports whether the controller accepts a name.
func (h *Handler) HandleValid(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	valid, err := h.session.CheckNameValidity(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, api.ValidityResponse{Name: name, Valid: valid})
}

// HandleAvailable reports whether a name can be registered now.
func (h *Handler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	available, err := h.session.IsNameAvailable(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, api.AvailabilityResponse{Name: name, Available: available})
}

// HandleCommitmentAges returns the controller's reveal window.
func (h *Handler) HandleCommitmentAges(w http.ResponseWriter, r *http.Request) {
	minAge, err := h.session.GetMinCommitmentAge(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	maxAge, err := h.session.GetMaxCommitmentAge(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.CommitmentAgesResponse{
		MinSeconds: uint64(minAge.Seconds()),
		MaxSeconds: uint64(maxAge.Seconds()),
	})
}

// HandleMakeCommitment computes the commitment for a name, owner and secret
// through the controller. A fresh secret is generated when none is given.
//
// URL format: POST /api/commitments
//
// Request body: api.CommitmentRequest
//
// Response: api.CommitmentResponse
func (h *Handler) HandleMakeCommitment(w http.ResponseWriter, r *http.Request) {
	var req api.CommitmentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	owner, err := interfaces.ParseAddress(req.Owner)
	if err != nil {
		h.writeError(w, badRequest("invalid owner: %v", err))
		return
	}

	var secret interfaces.Secret
	if req.Secret == "" {
		secret, err = registrar.NewSecret()
		if err != nil {
			h.writeError(w, err)
			return
		}
	} else {
		secret, err = interfaces.NewSecretFromHex(req.Secret)
		if err != nil {
			h.writeError(w, badRequest("invalid secret: %v", err))
			return
		}
	}

	commitment, err := h.session.CalculateCommitmentHash(r.Context(), req.Name, owner, secret)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.CommitmentResponse{
		Name:       req.Name,
		Owner:      owner.Hex(),
		Secret:     secret,
		Commitment: commitment,
	})
}

// HandleCommit builds the commit transaction for a commitment.
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	var req api.CommitRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	sender, err := interfaces.ParseAddress(req.Sender)
	if err != nil {
		h.writeError(w, badRequest("invalid sender: %v", err))
		return
	}
	commitment, err := interfaces.NewCommitmentHashFromHex(req.Commitment)
	if err != nil {
		h.writeError(w, badRequest("invalid commitment: %v", err))
		return
	}

	tx, err := h.session.SubmitCommitment(r.Context(), sender, commitment)
	h.writeTransaction(w, tx, err)
}

// HandleRegister builds the register (reveal) transaction. The request price
// becomes the transaction value.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	sender, err := interfaces.ParseAddress(req.Sender)
	if err != nil {
		h.writeError(w, badRequest("invalid sender: %v", err))
		return
	}
	owner, err := interfaces.ParseAddress(req.Owner)
	if err != nil {
		h.writeError(w, badRequest("invalid owner: %v", err))
		return
	}
	secret, err := interfaces.NewSecretFromHex(req.Secret)
	if err != nil {
		h.writeError(w, badRequest("invalid secret: %v", err))
		return
	}

	tx, err := h.session.RegisterName(r.Context(), sender, req.Name, owner, req.Duration, secret, req.Price)
	h.writeTransaction(w, tx, err)
}

// HandleRenew builds the renew transaction.
func (h *Handler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	var req api.RenewRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	sender, err := interfaces.ParseAddress(req.Sender)
	if err != nil {
		h.writeError(w, badRequest("invalid sender: %v", err))
		return
	}

	tx, err := h.session.ExtendNameRegistration(r.Context(), sender, req.Name, req.Duration, req.Price)
	h.writeTransaction(w, tx, err)
}

// HandleWithdraw builds the withdraw transaction.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req api.WithdrawRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	sender, err := interfaces.ParseAddress(req.Sender)
	if err != nil {
		h.writeError(w, badRequest("invalid sender: %v", err))
		return
	}

	tx, err := h.session.Withdraw(r.Context(), sender)
	h.writeTransaction(w, tx, err)
}

func decodeBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return &RequestError{StatusCode: http.StatusRequestEntityTooLarge, Err: err}
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func (h *Handler) writeTransaction(w http.ResponseWriter, tx *interfaces.TransactionDescriptor, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, tx)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Registrar request failed", slog.Int("status", status), "err", err)
	} else {
		h.log.Debug("Rejected registrar request", slog.Int("status", status), "err", err)
	}
	http.Error(w, err.Error(), status)
}

// statusFor maps session errors to HTTP status codes. Caller mistakes are
// 4xx; controller or node failures are 502, or 504 on deadline.
func statusFor(err error) int {
	var (
		reqErr          *RequestError
		amountErr       *registrar.AmountParseError
		constructionErr *registrar.ConstructionError
		callErr         *registrar.CallError
		decodeErr       *registrar.DecodeError
	)

	switch {
	case errors.As(err, &reqErr):
		return reqErr.StatusCode
	case errors.As(err, &amountErr), errors.As(err, &constructionErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &callErr), errors.As(err, &decodeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
