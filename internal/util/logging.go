package util

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

func LogError(message string, err error) error {
	log.Printf("%s: %v", message, err)
	return fmt.Errorf("%s: %w", message, err)
}

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	}{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// HandleRateLimited : отказ по квоте. Retry-After обязателен,
// чтобы клиент знал, когда повторять
func HandleRateLimited(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	w.Header().Set("X-RateLimit-Remaining", "0")
	HandleError(w,
		fmt.Sprintf("слишком много запросов, повторите через %d секунд", retryAfterSeconds),
		http.StatusTooManyRequests)
}
