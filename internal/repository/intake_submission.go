package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
)

// IntakeListParams — параметры выборки списка анкет.
type IntakeListParams struct {
	// Query — подстрока для поиска по имени, email и телефону (без учёта регистра)
	Query  string
	Limit  int
	Offset int
}

// IntakeSubmissionRepository — доступ к таблице intake_submissions.
type IntakeSubmissionRepository interface {
	Create(ctx context.Context, s *model.IntakeSubmission) error
	GetByID(ctx context.Context, id string) (*model.IntakeSubmission, error)
	// List возвращает анкеты, новые первыми. PayloadEnc не загружается.
	List(ctx context.Context, params IntakeListParams) ([]*model.IntakeSubmission, error)
	// Count возвращает число анкет, подходящих под поиск.
	Count(ctx context.Context, query string) (int, error)
}

type intakeSubmissionRepo struct {
	db DBTX
}

// NewIntakeSubmissionRepository создаёт репозиторий анкет.
func NewIntakeSubmissionRepository(db DBTX) IntakeSubmissionRepository {
	return &intakeSubmissionRepo{db: db}
}

const intakeListColumns = `id, created_at, full_name, dob, resident_type, country,
	email, phone, had_complications, privacy_accepted, marketing_consent, locale`

func (r *intakeSubmissionRepo) Create(ctx context.Context, s *model.IntakeSubmission) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO intake_submissions (id, full_name, dob, resident_type, country, email, phone,
			had_complications, privacy_accepted, marketing_consent, locale, payload_enc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`,
		s.ID, s.FullName, s.DateOfBirth, s.ResidentType, s.Country, s.Email, s.Phone,
		s.HadComplications, s.PrivacyAccepted, s.MarketingConsent, s.Locale, s.PayloadEnc,
	).Scan(&s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: анкета с таким id уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка сохранения анкеты: %w", err)
	}
	return nil
}

func (r *intakeSubmissionRepo) GetByID(ctx context.Context, id string) (*model.IntakeSubmission, error) {
	query := fmt.Sprintf(`SELECT %s, payload_enc FROM intake_submissions WHERE id = $1`, intakeListColumns)
	s := &model.IntakeSubmission{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CreatedAt, &s.FullName, &s.DateOfBirth, &s.ResidentType, &s.Country,
		&s.Email, &s.Phone, &s.HadComplications, &s.PrivacyAccepted, &s.MarketingConsent, &s.Locale,
		&s.PayloadEnc,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения анкеты: %w", err)
	}
	return s, nil
}

// searchCondition строит WHERE для поиска; argNum — номер первого параметра.
func searchCondition(q string, argNum int) (string, []any) {
	if q == "" {
		return "", nil
	}
	return fmt.Sprintf("WHERE full_name ILIKE $%[1]d OR email ILIKE $%[1]d OR phone ILIKE $%[1]d", argNum),
		[]any{"%" + escapeLike(q) + "%"}
}

func (r *intakeSubmissionRepo) List(ctx context.Context, params IntakeListParams) ([]*model.IntakeSubmission, error) {
	where, args := searchCondition(params.Query, 1)
	argNum := len(args) + 1

	query := fmt.Sprintf(`
		SELECT %s
		FROM intake_submissions
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, intakeListColumns, where, argNum, argNum+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка анкет: %w", err)
	}
	defer rows.Close()

	var result []*model.IntakeSubmission
	for rows.Next() {
		s := &model.IntakeSubmission{}
		if err := rows.Scan(
			&s.ID, &s.CreatedAt, &s.FullName, &s.DateOfBirth, &s.ResidentType, &s.Country,
			&s.Email, &s.Phone, &s.HadComplications, &s.PrivacyAccepted, &s.MarketingConsent, &s.Locale,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования анкеты: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *intakeSubmissionRepo) Count(ctx context.Context, q string) (int, error) {
	where, args := searchCondition(q, 1)

	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM intake_submissions "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта анкет: %w", err)
	}
	return count, nil
}

// escapeLike экранирует спецсимволы LIKE (обратный слэш — escape по умолчанию).
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
