package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// referenceRates are units of each currency per 1 BRL.
var referenceRates = map[string]decimal.Decimal{
	"BRL": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("0.1754"),
	"EUR": decimal.RequireFromString("0.1612"),
	"GBP": decimal.RequireFromString("0.1380"),
}

// latestRates mimics Frankfurter's GET /latest?from=X&to=Y.
func (s *Server) latestRates(w http.ResponseWriter, r *http.Request) {
	from := strings.ToUpper(r.URL.Query().Get("from"))
	to := strings.ToUpper(r.URL.Query().Get("to"))

	base, ok := referenceRates[from]
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown currency "+from)
		return
	}
	rates := map[string]any{}
	if target, ok := referenceRates[to]; ok {
		rates[to] = target.DivRound(base, 6)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"amount": 1,
		"base":   from,
		"date":   s.now().UTC().Format(time.DateOnly),
		"rates":  rates,
	})
}
