// intakes.go — список анкет и просмотр одной анкеты.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
	"github.com/Braaaaa/Hmolar-intake/internal/service"
	"github.com/Braaaaa/Hmolar-intake/internal/ui/pages"
)

const dateTimeLayout = "2006-01-02 15:04"

// IntakeReader — чтение анкет. Реализуется *service.IntakeService.
type IntakeReader interface {
	List(ctx context.Context, page int, query string) (*service.IntakePage, error)
	Get(ctx context.Context, id string) (*service.IntakeDetail, error)
}

// IntakeListParams — параметры запроса GET /admin/intake.
type IntakeListParams struct {
	Page *int    `form:"page,omitempty" json:"page,omitempty"`
	Q    *string `form:"q,omitempty" json:"q,omitempty"`
}

// IntakeHandler — страницы анкет.
type IntakeHandler struct {
	intakes IntakeReader
	logger  *slog.Logger
}

// NewIntakeHandler создаёт новый IntakeHandler.
func NewIntakeHandler(intakes IntakeReader, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{
		intakes: intakes,
		logger:  logger.With(slog.String("component", "ui.intakes")),
	}
}

// HandleList — GET /admin/intake?page=&q=.
// Нечисловой или отсутствующий page означает первую страницу.
func (h *IntakeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var params IntakeListParams
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &params.Page); err != nil {
		params.Page = nil
	}
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		params.Q = nil
	}

	page, query := 1, ""
	if params.Page != nil {
		page = *params.Page
	}
	if params.Q != nil {
		query = *params.Q
	}

	result, err := h.intakes.List(r.Context(), page, query)
	if err != nil {
		h.logger.Error("Ошибка получения списка анкет", slog.String("error", err.Error()))
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	data := pages.IntakeListData{
		Rows:       make([]pages.IntakeRow, 0, len(result.Items)),
		Query:      result.Query,
		Page:       result.Page,
		TotalPages: result.TotalPages,
		Total:      result.Total,
	}
	for _, it := range result.Items {
		data.Rows = append(data.Rows, pages.IntakeRow{
			ID:               it.ID,
			Date:             it.CreatedAt.Local().Format(dateTimeLayout),
			Name:             it.FullName,
			Age:              optionalInt(it.Age),
			Type:             it.ResidentType,
			Country:          orDash(it.Country),
			Email:            orDash(it.EmailMasked),
			Phone:            orDash(it.PhoneMasked),
			HadComplications: it.HadComplications,
			PrivacyAccepted:  it.PrivacyAccepted,
		})
	}

	w.Header().Set("Cache-Control", "no-store")
	renderPage(w, r, h.logger, "intake_list", pages.IntakeList(data))
}

// HandleDetail — GET /admin/intake/{id}.
// Если содержимое не расшифровалось, страница показывает общее сообщение.
func (h *IntakeHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		http.NotFound(w, r)
		return
	}
	var id openapi_types.UUID
	if id, err = uuid.Parse(raw); err != nil {
		http.NotFound(w, r)
		return
	}

	detail, err := h.intakes.Get(r.Context(), id.String())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("Ошибка получения анкеты",
			slog.String("submission_id", id.String()),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	data := pages.IntakeDetailData{
		ID:        detail.Submission.ID,
		Name:      detail.Submission.FullName,
		Submitted: detail.Submission.CreatedAt.Local().Format(dateTimeLayout),
		Available: detail.Form != nil,
	}
	if detail.Form != nil {
		data.Sections = detailSections(detail.Form, detail.Age)
	}

	w.Header().Set("Cache-Control", "no-store")
	renderPage(w, r, h.logger, "intake_detail", pages.IntakeDetail(data))
}

// detailSections раскладывает анкету по разделам страницы.
func detailSections(f *model.IntakeForm, age *int) []pages.DetailSection {
	dob := f.DateOfBirth
	if age != nil {
		dob = fmt.Sprintf("%s (%d)", f.DateOfBirth, *age)
	}

	personal := []pages.DetailRow{
		{Label: "field.residentType", Value: f.ResidentType},
		{Label: "field.gender", Value: f.Gender},
		{Label: "field.dateOfBirth", Value: dob},
		{Label: "field.address", Value: formatAddress(f.Address)},
	}
	if f.SedulaNumber != "" {
		personal = append(personal, pages.DetailRow{Label: "field.sedulaNumber", Value: f.SedulaNumber})
	}
	if f.PrimaryPhysician != "" {
		personal = append(personal, pages.DetailRow{Label: "field.primaryPhysician", Value: f.PrimaryPhysician})
	}

	contact := []pages.DetailRow{
		{Label: "field.phone1", Value: f.Phone1.Number},
		{Label: "field.whatsapp", Value: strconv.FormatBool(f.Phone1.HasWhatsApp)},
	}
	if f.Phone2 != nil && f.Phone2.Number != "" {
		contact = append(contact, pages.DetailRow{Label: "field.phone2", Value: f.Phone2.Number})
	}
	contact = append(contact,
		pages.DetailRow{Label: "field.email", Value: f.Email},
		pages.DetailRow{Label: "field.emergency", Value: fmt.Sprintf("%s (%s) %s",
			f.EmergencyContact.Name, f.EmergencyContact.Relation, f.EmergencyContact.Phone)},
	)

	m := f.Medical
	complications := m.ComplicationsBefore
	if m.ComplicationsDetails != "" {
		complications += ": " + m.ComplicationsDetails
	}
	medical := []pages.DetailRow{
		{Label: "field.heightWeight", Value: optionalInt(m.HeightCm) + " cm / " + optionalInt(m.WeightKg) + " kg"},
		{Label: "field.medications", Value: selectionWithDetails(m.MedicationsSelected, m.MedicationDetails)},
		{Label: "field.allergies", Value: selectionWithDetails(m.AllergiesSelected, m.AllergyDetails)},
		{Label: "field.conditions", Value: orDash(strings.Join(activeConditions(m.Conditions), ", "))},
		{Label: "field.lastDentalVisit", Value: m.LastDentalVisit},
		{Label: "field.hygiene", Value: m.BrushingFreq + " / " + m.FlossingFreq},
		{Label: "field.dentalAnxiety", Value: m.DentalAnxiety},
		{Label: "field.smokingStatus", Value: m.SmokingStatus},
		{Label: "field.alcoholPerWeek", Value: m.AlcoholPerWeek},
		{Label: "field.complications", Value: complications},
	}

	consent := []pages.DetailRow{
		{Label: "field.privacyConsent", Value: strconv.FormatBool(f.PrivacyConsent)},
		{Label: "field.marketingConsent", Value: strconv.FormatBool(f.MarketingConsent)},
	}

	return []pages.DetailSection{
		{Title: "detail.section.personal", Rows: personal},
		{Title: "detail.section.contact", Rows: contact},
		{Title: "detail.section.medical", Rows: medical},
		{Title: "detail.section.consent", Rows: consent},
	}
}

func formatAddress(a model.Address) string {
	parts := []string{strings.TrimSpace(a.Street + " " + a.Number)}
	if a.PostalCode != "" {
		parts = append(parts, a.PostalCode)
	}
	parts = append(parts, a.City)
	if c := (&model.IntakeForm{Address: a}).CountryLabel(); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, ", ")
}

// selectionWithDetails — выбранные варианты, уточнения в скобках.
func selectionWithDetails(selected []string, details map[string]string) string {
	if len(selected) == 0 {
		return "—"
	}
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		if d := strings.TrimSpace(details[s]); d != "" {
			s += " (" + d + ")"
		}
		out = append(out, s)
	}
	return strings.Join(out, ", ")
}

func activeConditions(conditions map[string]bool) []string {
	out := make([]string, 0, len(conditions))
	for name, on := range conditions {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func optionalInt(v *int) string {
	if v == nil {
		return "—"
	}
	return strconv.Itoa(*v)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
