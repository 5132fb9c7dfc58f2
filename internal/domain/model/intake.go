package model

import "time"

// IntakeForm — анкета пациента в том виде, в котором её присылает форма.
// Полностью шифруется и хранится в intake_submissions.payload_enc.
type IntakeForm struct {
	ResidentType     string           `json:"residentType"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Gender           string           `json:"gender"`
	DateOfBirth      string           `json:"dateOfBirth"`
	Address          Address          `json:"address"`
	Phone1           PrimaryPhone     `json:"phone1"`
	Phone2           *SecondaryPhone  `json:"phone2,omitempty"`
	Email            string           `json:"email"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	SedulaNumber     string           `json:"sedulaNumber,omitempty"`
	PrimaryPhysician string           `json:"primaryPhysician,omitempty"`
	Medical          MedicalHistory   `json:"medical"`
	MarketingConsent bool             `json:"marketingConsent"`
	PrivacyConsent   bool             `json:"privacyConsent"`
}

// Address — адрес пациента.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country,omitempty"`
	CountryOther string `json:"countryOther,omitempty"`
}

// PrimaryPhone — основной телефон.
type PrimaryPhone struct {
	Number      string `json:"number"`
	HasWhatsApp bool   `json:"hasWhatsApp"`
}

// SecondaryPhone — дополнительный телефон (необязательный).
type SecondaryPhone struct {
	Number string `json:"number,omitempty"`
}

// EmergencyContact — контакт на экстренный случай.
type EmergencyContact struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone"`
}

// MedicalHistory — медицинский анамнез.
type MedicalHistory struct {
	HeightCm             *int              `json:"heightCm,omitempty"`
	WeightKg             *int              `json:"weightKg,omitempty"`
	MedicationsSelected  []string          `json:"medicationsSelected"`
	MedicationDetails    map[string]string `json:"medicationDetails"`
	AllergiesSelected    []string          `json:"allergiesSelected"`
	AllergyDetails       map[string]string `json:"allergyDetails"`
	LastDentalVisit      string            `json:"lastDentalVisit"`
	BrushingFreq         string            `json:"brushingFreq"`
	FlossingFreq         string            `json:"flossingFreq"`
	DentalAnxiety        string            `json:"dentalAnxiety"`
	Conditions           map[string]bool   `json:"conditions"`
	SmokingStatus        string            `json:"smokingStatus"`
	AlcoholPerWeek       string            `json:"alcoholPerWeek"`
	ComplicationsBefore  string            `json:"complicationsBefore"`
	ComplicationsDetails string            `json:"complicationsDetails,omitempty"`
}

// FullName — имя и фамилия через пробел.
func (f *IntakeForm) FullName() string {
	return f.FirstName + " " + f.LastName
}

// CountryLabel — страна для открытой колонки: countryOther для "Overig".
func (f *IntakeForm) CountryLabel() string {
	if f.Address.Country == "Overig" && f.Address.CountryOther != "" {
		return f.Address.CountryOther
	}
	return f.Address.Country
}

// IntakeSubmission — сохранённая анкета: открытые колонки для поиска
// и списка плюс зашифрованный блоб со всей анкетой.
type IntakeSubmission struct {
	ID               string
	CreatedAt        time.Time
	FullName         string
	DateOfBirth      *time.Time
	ResidentType     string
	Country          *string
	Email            string
	Phone            string
	HadComplications bool
	PrivacyAccepted  bool
	MarketingConsent bool
	Locale           string
	// PayloadEnc — nonce(12) || tag(16) || ciphertext
	PayloadEnc []byte
}
