package response

import (
	"encoding/json"
	"net/http"

	"github.com/mercato/customer-accounts/pkg/logger"
)

// Every response carries a success boolean; failures additionally carry a
// human-readable msg. Extra data fields are merged into the same object.

func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func Success(w http.ResponseWriter, statusCode int, msg string, data map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	if msg != "" {
		body["msg"] = msg
	}
	for k, v := range data {
		body[k] = v
	}
	JSON(w, statusCode, body)
}

func Failure(w http.ResponseWriter, statusCode int, msg string) {
	JSON(w, statusCode, map[string]interface{}{
		"success": false,
		"msg":     msg,
	})
}
