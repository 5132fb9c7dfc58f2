// intake.go — приём анкет пациентов и просмотр в админ-панели.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
	"github.com/Braaaaa/Hmolar-intake/internal/repository"
	"github.com/Braaaaa/Hmolar-intake/internal/validation"
)

// IntakePageSize — анкет на странице списка.
const IntakePageSize = 20

// PayloadCipher шифрует анкету целиком. Реализуется *codec.Codec.
type PayloadCipher interface {
	Encrypt(v any) ([]byte, error)
	Decrypt(blob []byte, out any) error
}

// IntakeValidator проверяет анкету. Реализуется *validation.Validator.
type IntakeValidator interface {
	Validate(obj map[string]any) (*model.IntakeForm, []validation.Issue, error)
}

// ValidationError — анкета не прошла проверку.
type ValidationError struct {
	Issues []validation.Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d полей", ErrValidation, len(e.Issues))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IntakeListItem — строка списка анкет. Контакты замаскированы.
type IntakeListItem struct {
	ID               string
	CreatedAt        time.Time
	FullName         string
	Age              *int
	ResidentType     string
	Country          string
	EmailMasked      string
	PhoneMasked      string
	HadComplications bool
	PrivacyAccepted  bool
}

// IntakePage — страница списка анкет.
type IntakePage struct {
	Items      []IntakeListItem
	Page       int
	TotalPages int
	Total      int
	Query      string
}

// IntakeDetail — анкета для просмотра. Form == nil, если блоб не расшифровался.
type IntakeDetail struct {
	Submission *model.IntakeSubmission
	Age        *int
	Form       *model.IntakeForm
}

// IntakeService — сервис анкет.
type IntakeService struct {
	repo      repository.IntakeSubmissionRepository
	cipher    PayloadCipher
	validator IntakeValidator
	logger    *slog.Logger
	now       func() time.Time
}

// NewIntakeService создаёт сервис анкет.
func NewIntakeService(
	repo repository.IntakeSubmissionRepository,
	cipher PayloadCipher,
	validator IntakeValidator,
	logger *slog.Logger,
) *IntakeService {
	return &IntakeService{
		repo:      repo,
		cipher:    cipher,
		validator: validator,
		logger:    logger.With(slog.String("component", "intake_service")),
		now:       time.Now,
	}
}

// Submit проверяет, шифрует и сохраняет анкету. Возвращает id.
// Ошибки: ErrSpam, *ValidationError (errors.Is ErrValidation).
func (s *IntakeService) Submit(ctx context.Context, obj map[string]any, locale string) (string, error) {
	if validation.IsSpam(obj) {
		intakeSubmissionsTotal.WithLabelValues("spam").Inc()
		return "", ErrSpam
	}
	delete(obj, "botField")

	form, issues, err := s.validator.Validate(obj)
	if err != nil {
		intakeSubmissionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("валидация анкеты: %w", err)
	}
	if len(issues) > 0 {
		intakeSubmissionsTotal.WithLabelValues("invalid").Inc()
		return "", &ValidationError{Issues: issues}
	}

	payload, err := s.cipher.Encrypt(form)
	if err != nil {
		intakeSubmissionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("шифрование анкеты: %w", err)
	}

	sub := &model.IntakeSubmission{
		ID:               uuid.New().String(),
		FullName:         form.FullName(),
		ResidentType:     form.ResidentType,
		Email:            form.Email,
		Phone:            form.Phone1.Number,
		HadComplications: form.Medical.ComplicationsBefore == "ja",
		PrivacyAccepted:  form.PrivacyConsent,
		MarketingConsent: form.MarketingConsent,
		Locale:           locale,
		PayloadEnc:       payload,
	}
	if dob, err := validation.ParseDateOfBirth(form.DateOfBirth); err == nil {
		sub.DateOfBirth = &dob
	}
	if c := form.CountryLabel(); c != "" {
		sub.Country = &c
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		intakeSubmissionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("сохранение анкеты: %w", err)
	}

	intakeSubmissionsTotal.WithLabelValues("stored").Inc()
	s.logger.Info("Анкета сохранена",
		slog.String("submission_id", sub.ID),
		slog.String("resident_type", sub.ResidentType),
		slog.String("locale", locale),
	)
	return sub.ID, nil
}

// List возвращает страницу анкет, новые первыми. page < 1 считается первой.
func (s *IntakeService) List(ctx context.Context, page int, query string) (*IntakePage, error) {
	if page < 1 {
		page = 1
	}
	query = strings.TrimSpace(query)

	total, err := s.repo.Count(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("подсчёт анкет: %w", err)
	}

	rows, err := s.repo.List(ctx, repository.IntakeListParams{
		Query:  query,
		Limit:  IntakePageSize,
		Offset: (page - 1) * IntakePageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("получение списка анкет: %w", err)
	}

	now := s.now()
	items := make([]IntakeListItem, 0, len(rows))
	for _, r := range rows {
		item := IntakeListItem{
			ID:               r.ID,
			CreatedAt:        r.CreatedAt,
			FullName:         r.FullName,
			Age:              AgeFromDOB(r.DateOfBirth, now),
			ResidentType:     r.ResidentType,
			EmailMasked:      MaskEmail(r.Email),
			PhoneMasked:      MaskPhone(r.Phone),
			HadComplications: r.HadComplications,
			PrivacyAccepted:  r.PrivacyAccepted,
		}
		if r.Country != nil {
			item.Country = *r.Country
		}
		items = append(items, item)
	}

	totalPages := (total + IntakePageSize - 1) / IntakePageSize
	if totalPages < 1 {
		totalPages = 1
	}

	return &IntakePage{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Query:      query,
	}, nil
}

// Get возвращает анкету с расшифрованным содержимым.
// Ошибка расшифровки не возвращается вызывающему: Form остаётся nil.
func (s *IntakeService) Get(ctx context.Context, id string) (*IntakeDetail, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение анкеты: %w", err)
	}

	detail := &IntakeDetail{
		Submission: sub,
		Age:        AgeFromDOB(sub.DateOfBirth, s.now()),
	}

	form := &model.IntakeForm{}
	if err := s.cipher.Decrypt(sub.PayloadEnc, form); err != nil {
		intakeDecryptFailuresTotal.Inc()
		s.logger.Error("Не удалось расшифровать анкету",
			slog.String("submission_id", sub.ID),
			slog.String("error", err.Error()),
		)
	} else {
		detail.Form = form
	}
	sub.PayloadEnc = nil

	return detail, nil
}

// MaskEmail оставляет первую букву имени и домен: a***@example.com.
// Строка без имени перед @ возвращается как есть.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	name, domain := email[:at], email[at:]
	first := []rune(name)[0]
	if len([]rune(name)) > 1 {
		return string(first) + "***" + domain
	}
	return string(first) + domain
}

// MaskPhone оставляет последние 4 цифры: ***1234.
// Номер из 4 и менее символов (без пробелов) возвращается как есть.
func MaskPhone(phone string) string {
	clean := strings.Join(strings.Fields(phone), "")
	r := []rune(clean)
	if len(r) <= 4 {
		return phone
	}
	return "***" + string(r[len(r)-4:])
}

// AgeFromDOB — полных лет на момент now.
func AgeFromDOB(dob *time.Time, now time.Time) *int {
	if dob == nil {
		return nil
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return &age
}
