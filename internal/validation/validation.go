// Пакет validation — проверка анкеты пациента.
//
// Структура, типы, перечисления и границы описаны OpenAPI-схемой
// (intake.yaml, проверяется kin-openapi). Правила, связывающие несколько
// полей, проверяются кодом после схемы. Сообщения об ошибках — на
// нидерландском, как в форме: берутся из расширений x-message-<поле схемы>
// или x-message.
package validation

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Braaaaa/Hmolar-intake/internal/domain/model"
)

//go:embed intake.yaml
var schemaYAML []byte

// ErrInvalidJSON — тело запроса не является JSON-объектом.
var ErrInvalidJSON = errors.New("тело запроса не является JSON-объектом")

const (
	msgRequired = "Verplicht"
	msgInvalid  = "Ongeldige waarde"
)

// Issue — одна ошибка валидации. Path — путь к полю через точку
// (medical.medicationDetails.anders), пустой для ошибок всего объекта.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validator проверяет анкеты по встроенной схеме.
type Validator struct {
	schema *openapi3.Schema
	now    func() time.Time
}

// New загружает и проверяет встроенную схему.
func New() (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(schemaYAML)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки схемы анкеты: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("некорректная схема анкеты: %w", err)
	}

	ref, ok := doc.Components.Schemas["Intake"]
	if !ok || ref.Value == nil {
		return nil, errors.New("схема Intake не найдена")
	}

	return &Validator{schema: ref.Value, now: time.Now}, nil
}

// Decode разбирает тело запроса в JSON-объект.
func Decode(body []byte) (map[string]any, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrInvalidJSON
	}
	return obj, nil
}

// IsSpam — заполнено скрытое поле botField.
func IsSpam(obj map[string]any) bool {
	switch v := obj["botField"].(type) {
	case string:
		return v != ""
	case bool:
		return v
	case nil:
		return false
	default:
		return true
	}
}

// Validate проверяет анкету. obj изменяется: подставляются значения
// по умолчанию, числовые строки роста и веса приводятся к числам.
// При непустом списке issues анкета не возвращается.
func (v *Validator) Validate(obj map[string]any) (*model.IntakeForm, []Issue, error) {
	coerceNumbers(obj)

	err := v.schema.VisitJSON(obj,
		openapi3.MultiErrors(),
		openapi3.VisitAsRequest(),
		openapi3.DefaultsSet(func() {}),
	)
	if issues := flatten(err); len(issues) > 0 {
		return nil, issues, nil
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка сериализации анкеты: %w", err)
	}
	form := &model.IntakeForm{}
	if err := json.Unmarshal(data, form); err != nil {
		return nil, nil, fmt.Errorf("ошибка разбора анкеты: %w", err)
	}

	if issues := v.crossCheck(form); len(issues) > 0 {
		return nil, issues, nil
	}
	return form, nil, nil
}

// ParseDateOfBirth разбирает дату рождения: YYYY-MM-DD или RFC 3339.
func ParseDateOfBirth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// coerceNumbers приводит medical.heightCm и medical.weightKg из строк
// к числам. Пустая строка и null означают "не указано".
// Нечисловая строка остаётся как есть и отклоняется схемой.
func coerceNumbers(obj map[string]any) {
	medical, ok := obj["medical"].(map[string]any)
	if !ok {
		return
	}
	for _, key := range []string{"heightCm", "weightKg"} {
		switch val := medical[key].(type) {
		case nil:
			delete(medical, key)
		case string:
			s := strings.TrimSpace(val)
			if s == "" {
				delete(medical, key)
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				medical[key] = f
			}
		}
	}
}

// flatten раскладывает ошибку kin-openapi в плоский список.
func flatten(err error) []Issue {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case openapi3.MultiError:
		var out []Issue
		for _, inner := range e {
			out = append(out, flatten(inner)...)
		}
		return out
	case *openapi3.SchemaError:
		return []Issue{{
			Path:    strings.Join(e.JSONPointer(), "."),
			Message: messageFor(e),
		}}
	default:
		return []Issue{{Message: msgInvalid}}
	}
}

func messageFor(e *openapi3.SchemaError) string {
	if e.SchemaField == "required" {
		return msgRequired
	}
	if e.Schema != nil {
		if m, ok := e.Schema.Extensions["x-message-"+e.SchemaField].(string); ok {
			return m
		}
		if m, ok := e.Schema.Extensions["x-message"].(string); ok {
			return m
		}
	}
	return msgInvalid
}

// crossCheck — правила, зависящие от нескольких полей.
func (v *Validator) crossCheck(f *model.IntakeForm) []Issue {
	var issues []Issue
	add := func(path, msg string) {
		issues = append(issues, Issue{Path: path, Message: msg})
	}
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	dob, err := ParseDateOfBirth(f.DateOfBirth)
	if err != nil || dob.After(v.now()) {
		add("dateOfBirth", "Geboortedatum is ongeldig of in de toekomst")
	}

	m := f.Medical
	if slices.Contains(m.MedicationsSelected, "geen") && len(m.MedicationsSelected) > 1 {
		add("medical.medicationsSelected", "'Geen' kan niet gecombineerd worden")
	}
	medicationDetails := []struct{ option, msg string }{
		{"bloedverdunners", "Specificeer welke bloedverdunners"},
		{"diabetesmedicatie", "Specificeer welke diabetesmedicatie"},
		{"anders", "Specificeer andere medicatie"},
	}
	for _, d := range medicationDetails {
		if slices.Contains(m.MedicationsSelected, d.option) && blank(m.MedicationDetails[d.option]) {
			add("medical.medicationDetails."+d.option, d.msg)
		}
	}

	if slices.Contains(m.AllergiesSelected, "geen") && len(m.AllergiesSelected) > 1 {
		add("medical.allergiesSelected", "'Geen' kan niet gecombineerd worden")
	}
	if slices.Contains(m.AllergiesSelected, "anders") && blank(m.AllergyDetails["anders"]) {
		add("medical.allergyDetails.anders", "Specificeer andere allergie")
	}

	if m.ComplicationsBefore == "ja" && blank(m.ComplicationsDetails) {
		add("medical.complicationsDetails", "Licht complicaties toe")
	}

	switch f.ResidentType {
	case "resident":
		if blank(f.SedulaNumber) {
			add("sedulaNumber", "Sedula-nummer is verplicht")
		}
		if blank(f.PrimaryPhysician) {
			add("primaryPhysician", "Huisarts is verplicht")
		}
	case "tourist":
		if blank(f.Address.PostalCode) {
			add("address.postalCode", "Postcode is verplicht")
		}
		if f.Address.Country == "" {
			add("address.country", "Land is verplicht")
		} else if f.Address.Country == "Overig" && blank(f.Address.CountryOther) {
			add("address.countryOther", "Vul het land in")
		}
	}

	return issues
}
