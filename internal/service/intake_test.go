package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Braaaaa/Hmolar-intake/internal/codec"
	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
	"github.com/Braaaaa/Hmolar-intake/internal/repository"
	"github.com/Braaaaa/Hmolar-intake/internal/validation"
)

// --- Mocks ---

// mockIntakeRepo — мок IntakeSubmissionRepository.
type mockIntakeRepo struct {
	createFn  func(ctx context.Context, s *model.IntakeSubmission) error
	getByIDFn func(ctx context.Context, id string) (*model.IntakeSubmission, error)
	listFn    func(ctx context.Context, params repository.IntakeListParams) ([]*model.IntakeSubmission, error)
	countFn   func(ctx context.Context, query string) (int, error)
}

func (m *mockIntakeRepo) Create(ctx context.Context, s *model.IntakeSubmission) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockIntakeRepo) GetByID(ctx context.Context, id string) (*model.IntakeSubmission, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockIntakeRepo) List(ctx context.Context, params repository.IntakeListParams) ([]*model.IntakeSubmission, error) {
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return nil, nil
}

func (m *mockIntakeRepo) Count(ctx context.Context, query string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, query)
	}
	return 0, nil
}

// mockValidator — мок IntakeValidator.
type mockValidator struct {
	validateFn func(obj map[string]any) (*model.IntakeForm, []validation.Issue, error)
}

func (m *mockValidator) Validate(obj map[string]any) (*model.IntakeForm, []validation.Issue, error) {
	return m.validateFn(obj)
}

func testCodec(t *testing.T, fill byte) *codec.Codec {
	t.Helper()
	key := make([]byte, codec.KeySize)
	for i := range key {
		key[i] = fill
	}
	c, err := codec.New(key)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}
	return c
}

func sampleForm() *model.IntakeForm {
	return &model.IntakeForm{
		ResidentType:   "tourist",
		FirstName:      "Jan",
		LastName:       "de Vries",
		DateOfBirth:    "1985-11-02",
		Address:        model.Address{Street: "Damrak", Number: "1", City: "Amsterdam", PostalCode: "1012 LG", Country: "Overig", CountryOther: "Suriname"},
		Phone1:         model.PrimaryPhone{Number: "+31 6 1234 5678", HasWhatsApp: true},
		Email:          "jan@example.nl",
		Medical:        model.MedicalHistory{ComplicationsBefore: "ja", ComplicationsDetails: "nabloeding"},
		PrivacyConsent: true,
	}
}

// --- Тесты IntakeService ---

func TestIntakeSubmit_StoresEncryptedPayload(t *testing.T) {
	c := testCodec(t, 7)
	var stored *model.IntakeSubmission
	repo := &mockIntakeRepo{createFn: func(_ context.Context, s *model.IntakeSubmission) error {
		stored = s
		return nil
	}}
	v := &mockValidator{validateFn: func(obj map[string]any) (*model.IntakeForm, []validation.Issue, error) {
		if _, ok := obj["botField"]; ok {
			t.Error("botField не должен передаваться в валидацию")
		}
		return sampleForm(), nil, nil
	}}
	svc := NewIntakeService(repo, c, v, slog.Default())

	id, err := svc.Submit(context.Background(), map[string]any{"botField": ""}, "en")
	if err != nil {
		t.Fatalf("Submit ошибка: %v", err)
	}
	if stored == nil || stored.ID != id {
		t.Fatal("Анкета не сохранена")
	}
	if stored.FullName != "Jan de Vries" || stored.Phone != "+31 6 1234 5678" || stored.Locale != "en" {
		t.Errorf("Неверные открытые колонки: %+v", stored)
	}
	if stored.Country == nil || *stored.Country != "Suriname" {
		t.Errorf("Country = %v, ожидалось Suriname", stored.Country)
	}
	if !stored.HadComplications || !stored.PrivacyAccepted {
		t.Error("Флаги осложнений и согласия не перенесены")
	}
	if stored.DateOfBirth == nil || stored.DateOfBirth.Year() != 1985 {
		t.Errorf("DateOfBirth = %v", stored.DateOfBirth)
	}

	var decoded model.IntakeForm
	if err := c.Decrypt(stored.PayloadEnc, &decoded); err != nil {
		t.Fatalf("Блоб не расшифровывается: %v", err)
	}
	if decoded.Medical.ComplicationsDetails != "nabloeding" {
		t.Errorf("Расшифрованная анкета не совпадает: %+v", decoded.Medical)
	}
}

func TestIntakeSubmit_Rejections(t *testing.T) {
	repo := &mockIntakeRepo{createFn: func(context.Context, *model.IntakeSubmission) error {
		t.Error("Create не должен вызываться")
		return nil
	}}

	t.Run("спам", func(t *testing.T) {
		v := &mockValidator{validateFn: func(map[string]any) (*model.IntakeForm, []validation.Issue, error) {
			t.Error("Validate не должен вызываться для спама")
			return nil, nil, nil
		}}
		svc := NewIntakeService(repo, testCodec(t, 1), v, slog.Default())

		_, err := svc.Submit(context.Background(), map[string]any{"botField": "http://spam"}, "nl")
		if !errors.Is(err, ErrSpam) {
			t.Fatalf("Ожидалась ErrSpam, получено: %v", err)
		}
	})

	t.Run("валидация", func(t *testing.T) {
		issues := []validation.Issue{{Path: "email", Message: "Ongeldig e-mailadres"}}
		v := &mockValidator{validateFn: func(map[string]any) (*model.IntakeForm, []validation.Issue, error) {
			return nil, issues, nil
		}}
		svc := NewIntakeService(repo, testCodec(t, 1), v, slog.Default())

		_, err := svc.Submit(context.Background(), map[string]any{}, "nl")
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("Ожидалась ErrValidation, получено: %v", err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || len(ve.Issues) != 1 || ve.Issues[0].Path != "email" {
			t.Errorf("Issues не переданы: %v", err)
		}
	})
}

func TestIntakeList(t *testing.T) {
	dob := time.Date(1990, 6, 2, 0, 0, 0, 0, time.UTC)
	country := "Bonaire"
	repo := &mockIntakeRepo{
		countFn: func(_ context.Context, q string) (int, error) {
			if q != "maria" {
				t.Errorf("Поиск не обрезан: %q", q)
			}
			return 41, nil
		},
		listFn: func(_ context.Context, p repository.IntakeListParams) ([]*model.IntakeSubmission, error) {
			if p.Limit != 20 || p.Offset != 20 {
				t.Errorf("Limit/Offset = %d/%d, ожидалось 20/20", p.Limit, p.Offset)
			}
			return []*model.IntakeSubmission{{
				ID: "s1", FullName: "Maria Gomez", DateOfBirth: &dob, Country: &country,
				Email: "maria@example.com", Phone: "+599 717 1234",
			}}, nil
		},
	}
	svc := NewIntakeService(repo, testCodec(t, 1), nil, slog.Default())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	page, err := svc.List(context.Background(), 2, "  maria ")
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if page.TotalPages != 3 || page.Page != 2 || page.Total != 41 {
		t.Errorf("Пагинация: %+v", page)
	}
	item := page.Items[0]
	if item.EmailMasked != "m***@example.com" || item.PhoneMasked != "***1234" {
		t.Errorf("Маскирование: %q %q", item.EmailMasked, item.PhoneMasked)
	}
	if item.Age == nil || *item.Age != 34 {
		t.Errorf("Age = %v, ожидалось 34", item.Age)
	}
	if item.Country != "Bonaire" {
		t.Errorf("Country = %q", item.Country)
	}
}

func TestIntakeList_EmptyHasOnePage(t *testing.T) {
	svc := NewIntakeService(&mockIntakeRepo{}, testCodec(t, 1), nil, slog.Default())

	page, err := svc.List(context.Background(), 0, "")
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if page.Page != 1 || page.TotalPages != 1 || len(page.Items) != 0 {
		t.Errorf("Пустой список: %+v", page)
	}
}

func TestIntakeGet(t *testing.T) {
	writer := testCodec(t, 1)
	blob, err := writer.Encrypt(sampleForm())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	repo := &mockIntakeRepo{getByIDFn: func(_ context.Context, id string) (*model.IntakeSubmission, error) {
		if id != "s1" {
			return nil, repository.ErrNotFound
		}
		return &model.IntakeSubmission{ID: "s1", PayloadEnc: blob}, nil
	}}

	t.Run("расшифровка", func(t *testing.T) {
		svc := NewIntakeService(repo, writer, nil, slog.Default())
		d, err := svc.Get(context.Background(), "s1")
		if err != nil {
			t.Fatalf("Get ошибка: %v", err)
		}
		if d.Form == nil || d.Form.LastName != "de Vries" {
			t.Errorf("Анкета не расшифрована: %+v", d.Form)
		}
		if d.Submission.PayloadEnc != nil {
			t.Error("Блоб не должен уходить наружу")
		}
	})

	t.Run("другой ключ", func(t *testing.T) {
		svc := NewIntakeService(repo, testCodec(t, 2), nil, slog.Default())
		d, err := svc.Get(context.Background(), "s1")
		if err != nil {
			t.Fatalf("Ошибка расшифровки не должна возвращаться: %v", err)
		}
		if d.Form != nil {
			t.Error("Form должна быть nil при неверном ключе")
		}
	})

	t.Run("не найдена", func(t *testing.T) {
		svc := NewIntakeService(repo, writer, nil, slog.Default())
		if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Ожидалась ErrNotFound, получено: %v", err)
		}
	})
}

func TestMaskEmail(t *testing.T) {
	tests := []struct{ in, want string }{
		{"maria@example.com", "m***@example.com"},
		{"m@example.com", "m@example.com"},
		{"@example.com", "@example.com"},
		{"no-at-sign", "no-at-sign"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskEmail(tt.in); got != tt.want {
			t.Errorf("MaskEmail(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct{ in, want string }{
		{"+599 717 1234", "***1234"},
		{"12 34", "12 34"},
		{"1234", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := MaskPhone(tt.in); got != tt.want {
			t.Errorf("MaskPhone(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}

func TestAgeFromDOB(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		dob  time.Time
		want int
	}{
		{time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC), 35},
		{time.Date(1990, 6, 2, 0, 0, 0, 0, time.UTC), 34},
		{time.Date(1990, 5, 31, 0, 0, 0, 0, time.UTC), 35},
		{time.Date(1990, 7, 1, 0, 0, 0, 0, time.UTC), 34},
	}
	for _, tt := range tests {
		if got := AgeFromDOB(&tt.dob, now); got == nil || *got != tt.want {
			t.Errorf("AgeFromDOB(%v) = %v, ожидалось %d", tt.dob, got, tt.want)
		}
	}
	if AgeFromDOB(nil, now) != nil {
		t.Error("AgeFromDOB(nil) должен вернуть nil")
	}
}
