package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// handleHealth reports liveness plus a quick integrity probe of both
// databases. Kept cheap so load balancers can poll it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "ok"
	checks := map[string]string{}

	if err := s.appDB.QuickCheck(ctx); err != nil {
		status = "degraded"
		checks["app"] = err.Error()
	} else {
		checks["app"] = "ok"
	}
	if err := s.cacheDB.QuickCheck(ctx); err != nil {
		status = "degraded"
		checks["cache"] = err.Error()
	} else {
		checks["cache"] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"databases": checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSpotRate returns the spot FX rate for ?from=X&to=Y.
func (s *Server) handleSpotRate(w http.ResponseWriter, r *http.Request) {
	from := strings.ToUpper(r.URL.Query().Get("from"))
	to := strings.ToUpper(r.URL.Query().Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	rate, err := s.fx.GetSpotRate(from, to)
	if err != nil {
		s.log.Error().Err(err).Str("from", from).Str("to", to).Msg("Failed to fetch spot rate")
		writeError(w, http.StatusBadGateway, "rate unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from": from,
		"to":   to,
		"rate": rate,
	})
}

// handleQuote proxies the cached quote payload for ?ticker=X.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	s.proxyMarketData(w, r, s.marketData.Quote)
}

// handleDividendData proxies cached dividend data for ?ticker=X.
func (s *Server) handleDividendData(w http.ResponseWriter, r *http.Request) {
	s.proxyMarketData(w, r, s.marketData.DividendData)
}

func (s *Server) proxyMarketData(w http.ResponseWriter, r *http.Request, fetch func(string) (json.RawMessage, error)) {
	ticker := strings.ToUpper(r.URL.Query().Get("ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	payload, err := fetch(ticker)
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to fetch market data")
		writeError(w, http.StatusBadGateway, "market data unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
