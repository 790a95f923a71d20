package server

import (
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"

	"github.com/pulsescan/pulse-feed/internal/jupiter"
)

// Swap builds an unsigned swap transaction from a previously obtained quote.
// The transaction is returned to the client for signing; no key material ever
// reaches this service.
func (h *Handlers) Swap(c echo.Context) error {
	if h.Jupiter == nil {
		return h.err(c, http.StatusBadRequest, "jupiter is not configured", nil)
	}

	var req SwapBuildRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if req.QuoteResponse == nil {
		return h.err(c, http.StatusBadRequest, "invalid quoteResponse", map[string]any{"quoteResponse": "required"})
	}
	if _, err := solana.PublicKeyFromBase58(req.UserPublicKey); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid userPublicKey", map[string]any{"userPublicKey": "must be base58"})
	}

	wrapSol := true
	if req.WrapAndUnwrapSol != nil {
		wrapSol = *req.WrapAndUnwrapSol
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	out, err := h.Jupiter.Swap(ctx, jupiter.SwapRequest{
		QuoteResponse:    req.QuoteResponse,
		UserPublicKey:    req.UserPublicKey,
		WrapAndUnwrapSol: wrapSol,
	})
	if err != nil {
		return h.err(c, http.StatusBadGateway, jupiter.FriendlyError(err), map[string]any{"err": err.Error()})
	}

	// Reject anything the aggregator returns that is not actually a
	// transaction before handing it to a wallet.
	if _, err := solana.TransactionFromBase64(out.SwapTransaction); err != nil {
		h.Logger.WithError(err).Warn("aggregator returned undecodable transaction")
		return h.err(c, http.StatusBadGateway, "invalid transaction from aggregator", nil)
	}

	return c.JSON(http.StatusOK, SwapBuildResponse{
		SwapTransaction:      out.SwapTransaction,
		LastValidBlockHeight: out.LastValidBlockHeight,
	})
}
