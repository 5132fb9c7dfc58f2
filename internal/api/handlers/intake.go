// intake.go — приём анкет пациентов (POST /api/intake).
package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/Braaaaa/Hmolar-intake/internal/api/errors"
	"github.com/Braaaaa/Hmolar-intake/internal/service"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/i18n"
	"github.com/Braaaaa/Hmolar-intake/internal/validation"
)

// MaxIntakeBodyBytes — максимальный размер тела анкеты.
const MaxIntakeBodyBytes = 64 << 10

// Сообщения ответа формы. Клиент показывает их пользователю как есть.
const (
	msgValidationFailed = "Validatie mislukt"
	msgSpam             = "Spam gedetecteerd"
	msgInvalidJSON      = "Ongeldige JSON"
	msgTooLarge         = "Aanvraag te groot"
	msgInternal         = "Interne serverfout"
)

// IntakeSubmitter — приём анкеты. Реализуется *service.IntakeService.
type IntakeSubmitter interface {
	Submit(ctx context.Context, obj map[string]any, locale string) (string, error)
}

// IntakeHandler — обработчик приёма анкет.
type IntakeHandler struct {
	intake IntakeSubmitter
	logger *slog.Logger
}

// NewIntakeHandler создаёт обработчик приёма анкет.
func NewIntakeHandler(intake IntakeSubmitter, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{
		intake: intake,
		logger: logger.With(slog.String("component", "intake_handler")),
	}
}

// Submit принимает JSON анкеты.
// 201 {"ok":true,"id":...}; 400 спам, невалидный JSON или ошибки полей;
// 413 слишком большое тело; 500 внутренняя ошибка.
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxIntakeBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.FormRejected(w, http.StatusRequestEntityTooLarge, msgTooLarge, nil)
			return
		}
		apierrors.FormRejected(w, http.StatusBadRequest, msgInvalidJSON, nil)
		return
	}

	obj, err := validation.Decode(body)
	if err != nil {
		apierrors.FormRejected(w, http.StatusBadRequest, msgInvalidJSON, nil)
		return
	}

	id, err := h.intake.Submit(r.Context(), obj, i18n.LangFromContext(r.Context()))
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrSpam):
			h.logger.Info("Анкета отклонена как спам", slog.String("remote_addr", r.RemoteAddr))
			apierrors.FormRejected(w, http.StatusBadRequest, msgSpam, nil)
		case errors.As(err, &verr):
			apierrors.FormRejected(w, http.StatusBadRequest, msgValidationFailed, verr.Issues)
		default:
			h.logger.Error("Ошибка приёма анкеты", slog.String("error", err.Error()))
			apierrors.FormRejected(w, http.StatusInternalServerError, msgInternal, nil)
		}
		return
	}

	apierrors.WriteFormResult(w, http.StatusCreated, apierrors.FormResult{OK: true, ID: id})
}
