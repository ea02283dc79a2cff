package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/privymarket/settlement/internal/engine"
	"github.com/privymarket/settlement/internal/identity"
	"github.com/privymarket/settlement/pkg/cache"
	"github.com/privymarket/settlement/pkg/types"
	"go.uber.org/zap"
)

// SignatureHeader carries the hex secp256k1 signature over the raw
// request body. The recovered signer is the caller identity.
const SignatureHeader = "X-Signature"

const maxBodyBytes = 1 << 16

type settlementHandler struct {
	engine  *engine.Engine
	markets *cache.MarketCache
	logger  *zap.Logger
}

// authenticate reads the body and recovers the signing address. A
// missing or malformed signature rejects the request outright.
func (h *settlementHandler) authenticate(w http.ResponseWriter, r *http.Request) (common.Address, []byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "read body")
		return common.Address{}, nil, false
	}

	sig := r.Header.Get(SignatureHeader)
	if sig == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+SignatureHeader+" header")
		return common.Address{}, nil, false
	}

	caller, err := identity.RecoverSigner(body, sig)
	if err != nil {
		h.logger.Debug("signature-rejected", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid signature")
		return common.Address{}, nil, false
	}

	return caller, body, true
}

// HandleInitialize creates the authority record; the request signer
// becomes the admin.
func (h *settlementHandler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	caller, _, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	a, err := h.engine.Initialize(r.Context(), caller)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

type createMarketRequest struct {
	ID       uint64    `json:"id"`
	Question string    `json:"question"`
	Deadline time.Time `json:"deadline"`
}

// HandleCreateMarket creates a market. Authority only.
func (h *settlementHandler) HandleCreateMarket(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req createMarketRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	m, err := h.engine.CreateMarket(r.Context(), caller, req.ID, req.Question, req.Deadline)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

type resolveMarketRequest struct {
	Outcome types.Side `json:"outcome"`
}

// HandleResolveMarket resolves a market. Authority only.
func (h *settlementHandler) HandleResolveMarket(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id, ok := parseMarketID(w, r)
	if !ok {
		return
	}

	var req resolveMarketRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	m, err := h.engine.ResolveMarket(r.Context(), caller, id, req.Outcome)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.markets.Invalidate(id)
	writeJSON(w, http.StatusOK, m)
}

type placeBetRequest struct {
	Commitment types.Commitment `json:"commitment"`
	Amount     uint64           `json:"amount"`
}

// HandlePlaceBet escrows a stake under a commitment.
func (h *settlementHandler) HandlePlaceBet(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id, ok := parseMarketID(w, r)
	if !ok {
		return
	}

	var req placeBetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	p, err := h.engine.PlaceBet(r.Context(), caller, id, req.Commitment, req.Amount)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.markets.Invalidate(id)
	writeJSON(w, http.StatusCreated, p)
}

type claimRequest struct {
	Secret types.Secret `json:"secret"`
	Side   types.Side   `json:"side"`
}

// HandleClaimWinnings reveals a commitment and pays out.
func (h *settlementHandler) HandleClaimWinnings(w http.ResponseWriter, r *http.Request) {
	caller, body, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	id, ok := parseMarketID(w, r)
	if !ok {
		return
	}

	var req claimRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	receipt, err := h.engine.ClaimWinnings(r.Context(), caller, id, req.Secret, req.Side)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.markets.Invalidate(id)
	writeJSON(w, http.StatusOK, receipt)
}

// HandleListMarkets returns all markets.
func (h *settlementHandler) HandleListMarkets(w http.ResponseWriter, r *http.Request) {
	ms, err := h.engine.Markets(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"markets": ms, "count": len(ms)})
}

// HandleGetMarket returns one market, served from the read cache when
// fresh.
func (h *settlementHandler) HandleGetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMarketID(w, r)
	if !ok {
		return
	}

	if m, found := h.markets.Get(id); found {
		writeJSON(w, http.StatusOK, m)
		return
	}

	m, err := h.engine.Market(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	h.markets.Set(m)
	writeJSON(w, http.StatusOK, m)
}

// HandleGetPosition returns one bettor's position on a market.
func (h *settlementHandler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMarketID(w, r)
	if !ok {
		return
	}

	addr := chi.URLParam(r, "address")
	if !common.IsHexAddress(addr) {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid address")
		return
	}

	p, err := h.engine.Position(r.Context(), id, common.HexToAddress(addr))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *settlementHandler) writeEngineError(w http.ResponseWriter, err error) {
	var coded *types.Error
	if errors.As(err, &coded) {
		writeError(w, statusFor(coded), coded.Code, coded.Message)
		return
	}

	h.logger.Error("settlement-handler-error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}

// statusFor maps the settlement error taxonomy onto HTTP statuses.
func statusFor(coded *types.Error) int {
	switch coded {
	case types.ErrUnauthorized:
		return http.StatusUnauthorized
	case types.ErrNotFound, types.ErrNotInitialized:
		return http.StatusNotFound
	case types.ErrAlreadyExists, types.ErrAlreadyClaimed, types.ErrMarketAlreadyResolved,
		types.ErrInsufficientVaultBalance, types.ErrInsufficientFunds:
		return http.StatusConflict
	case types.ErrMarketNotOpen, types.ErrMarketNotResolved, types.ErrDeadlinePassed,
		types.ErrDeadlineNotPassed, types.ErrInvalidAmount, types.ErrQuestionTooLong,
		types.ErrInvalidCommitment, types.ErrNotAWinner, types.ErrZeroWinningPool,
		types.ErrOverflow:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func parseMarketID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid market id")
		return 0, false
	}
	return id, true
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}
