// Пакет errors — ответы API с ошибками.
//
// Служебные endpoints отвечают в формате {"error": {"code": "...", "message": "..."}}.
// Endpoint приёма анкет отвечает в формате формы:
// {"ok": false, "message": "...", "issues": [...]}, который ожидает клиент.
package errors

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок служебных endpoints.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// MethodNotAllowed — 405 метод не поддерживается.
func MethodNotAllowed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// --- Ответы формы анкеты ---

// FormResult — тело ответа endpoint-а приёма анкет.
type FormResult struct {
	OK      bool   `json:"ok"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
	Issues  any    `json:"issues,omitempty"`
}

// WriteFormResult записывает ответ в формате формы.
func WriteFormResult(w http.ResponseWriter, statusCode int, res FormResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(res)
}

// FormRejected — отказ в приёме анкеты (ok=false).
func FormRejected(w http.ResponseWriter, statusCode int, message string, issues any) {
	WriteFormResult(w, statusCode, FormResult{OK: false, Message: message, Issues: issues})
}
