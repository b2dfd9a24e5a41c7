package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/codyssey/codyssey/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// StatusProxy fetches a raw Codeforces user.status payload.
type StatusProxy interface {
	RawUserStatus(ctx context.Context, handle string, from, count int) ([]byte, int, error)
}

// ProxyHandler passes raw Codeforces submission listings through to the
// frontend, which needs a larger window than the cached views provide.
type ProxyHandler struct {
	codeforces StatusProxy
	logger     *zap.Logger
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(codeforces StatusProxy, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		codeforces: codeforces,
		logger:     logger.Named("proxy_handler"),
	}
}

// UserStatus proxies the Codeforces user.status endpoint. The upstream
// status code and body are forwarded as-is.
func (h *ProxyHandler) UserStatus(w http.ResponseWriter, req bunrouter.Request) error {
	query := req.URL.Query()

	handle := query.Get("handle")
	if handle == "" {
		return writeJSON(w, http.StatusBadRequest, types.MessageResponse{Message: "Codeforces handle is required"})
	}

	from, _ := strconv.Atoi(query.Get("from"))
	count, _ := strconv.Atoi(query.Get("count"))

	body, status, err := h.codeforces.RawUserStatus(req.Context(), handle, from, count)
	if err != nil {
		h.logger.Error("Codeforces proxy request failed",
			zap.String("handle", handle),
			zap.Error(err))

		return writeJSON(w, http.StatusInternalServerError, types.MessageResponse{Message: "Server error while fetching from Codeforces."})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(body)

	return err
}
