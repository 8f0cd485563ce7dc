package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/mtlprog/lpmon/internal/archive"
	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/wallet"
)

// Portfolios serves aggregated wallet views.
type Portfolios interface {
	GetWalletPortfolio(ctx context.Context, walletID string) (domain.WalletLPPortfolio, error)
	GetWalletSummary(ctx context.Context, walletID string) (domain.PortfolioSummary, error)
	GetUnclaimedFeesSummary(ctx context.Context, walletID string) (domain.UnclaimedFeesSummary, error)
	GetEarningsStats(ctx context.Context, walletID string) (domain.EarningsProjection, error)
	GetPositionDetails(ctx context.Context, walletID, poolAddress string) (domain.LPPosition, error)
}

// Wallets lists and validates registered wallets.
type Wallets interface {
	All() []wallet.Wallet
	IsConfigured(id string) bool
	Validate(id string) error
}

// PositionRefresher rereads a wallet's positions from the source.
type PositionRefresher interface {
	RefreshPositions(ctx context.Context, walletID string) ([]domain.LPPosition, error)
}

// History lists archived portfolios.
type History interface {
	List(ctx context.Context, walletID string, limit int) ([]archive.Record, error)
}

// Handler provides the position endpoints.
type Handler struct {
	wallets    Wallets
	portfolios Portfolios
	positions  PositionRefresher
	history    History // optional
}

// NewHandler creates a position Handler. history may be nil.
func NewHandler(wallets Wallets, portfolios Portfolios, positions PositionRefresher, history History) *Handler {
	return &Handler{wallets: wallets, portfolios: portfolios, positions: positions, history: history}
}

type walletInfo struct {
	wallet.Wallet
	IsConfigured bool `json:"isConfigured"`
}

// ListWallets handles GET /api/positions/wallets.
func (h *Handler) ListWallets(w http.ResponseWriter, _ *http.Request) {
	list := lo.Map(h.wallets.All(), func(wl wallet.Wallet, _ int) walletInfo {
		return walletInfo{Wallet: wl, IsConfigured: h.wallets.IsConfigured(wl.ID)}
	})
	writeData(w, map[string]any{"wallets": list, "total": len(list)})
}

// GetPortfolio handles GET /api/positions/{walletId}.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolios.GetWalletPortfolio(r.Context(), chi.URLParam(r, "walletId"))
	if err != nil {
		writeServiceError(w, "get wallet portfolio", err)
		return
	}
	writeData(w, p)
}

// GetSummary handles GET /api/positions/{walletId}/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.portfolios.GetWalletSummary(r.Context(), chi.URLParam(r, "walletId"))
	if err != nil {
		writeServiceError(w, "get wallet summary", err)
		return
	}
	writeData(w, s)
}

// GetUnclaimedFees handles GET /api/positions/{walletId}/unclaimed-fees.
func (h *Handler) GetUnclaimedFees(w http.ResponseWriter, r *http.Request) {
	s, err := h.portfolios.GetUnclaimedFeesSummary(r.Context(), chi.URLParam(r, "walletId"))
	if err != nil {
		writeServiceError(w, "get unclaimed fees", err)
		return
	}
	writeData(w, s)
}

// GetEarnings handles GET /api/positions/{walletId}/earnings.
func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	e, err := h.portfolios.GetEarningsStats(r.Context(), chi.URLParam(r, "walletId"))
	if err != nil {
		writeServiceError(w, "get earnings stats", err)
		return
	}
	writeData(w, e)
}

// GetPosition handles GET /api/positions/{walletId}/pool/{poolAddress}.
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	p, err := h.portfolios.GetPositionDetails(r.Context(), chi.URLParam(r, "walletId"), chi.URLParam(r, "poolAddress"))
	if err != nil {
		writeServiceError(w, "get position details", err)
		return
	}
	writeData(w, p)
}

// GetHistory handles GET /api/positions/{walletId}/history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "archive history is not enabled")
		return
	}
	walletID := chi.URLParam(r, "walletId")
	if err := h.wallets.Validate(walletID); err != nil {
		writeServiceError(w, "list archives", err)
		return
	}

	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	recs, err := h.history.List(r.Context(), walletID, limit)
	if err != nil {
		writeServiceError(w, "list archives", err)
		return
	}
	writeData(w, recs)
}

// Refresh handles POST /api/positions/{walletId}/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	walletID := chi.URLParam(r, "walletId")
	if err := h.wallets.Validate(walletID); err != nil {
		writeServiceError(w, "refresh positions", err)
		return
	}
	positions, err := h.positions.RefreshPositions(r.Context(), walletID)
	if err != nil {
		writeServiceError(w, "refresh positions", err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Refreshed " + strconv.Itoa(len(positions)) + " positions",
		Data: map[string]any{
			"positionCount": len(positions),
			"refreshedAt":   time.Now().UTC(),
		},
	})
}
