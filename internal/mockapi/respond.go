package mockapi

import (
	"encoding/json"
	"net/http"

	"gitlab.com/yelinaung/finadm/internal/logger"
)

// Error codes the mock backend answers with.
const (
	codeValidation         = "VALIDATION_ERROR"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeUnauthorized       = "UNAUTHORIZED"
	codeForbidden          = "FORBIDDEN"
	codeNotFound           = "NOT_FOUND"
	codeConflict           = "CONFLICT"
	codeInvalidToken       = "INVALID_REFRESH_TOKEN"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error().Err(err).Msg("mockapi: failed to encode response")
	}
}

// writeError uses the nested {"error":{...}} shape.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

// writeFlatError uses the flat {"code","message"} shape some endpoints send.
func writeFlatError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

func writeValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":    codeValidation,
			"message": "validation failed",
			"fields":  fields,
		},
	})
}

func writeBlob(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decode reads a JSON body. It writes the 400 itself and reports false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, codeValidation, "request body required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return false
	}
	return true
}

// toMap flattens a struct into a map so envelopes can rename fields.
func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}
