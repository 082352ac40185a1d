package transport

import (
	"time"

	"relocation_quiz_backend/internal/savings"
)

// ContactRequest is the body of POST /api/v1/contact.
type ContactRequest struct {
	FirstName       string `json:"firstName" validate:"required,min=2,max=50"`
	LastName        string `json:"lastName" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Phone           string `json:"phone" validate:"omitempty,usphone"`
	Location        string `json:"location" validate:"omitempty,max=100"`
	InvestmentRange string `json:"investmentRange" validate:"omitempty,max=50"`
	Message         string `json:"message" validate:"omitempty,max=2000"`
}

// LeadMagnetRequest is the body of POST /api/v1/lead-magnet.
type LeadMagnetRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// QuizAnswersRequest is the answer set embedded in a quiz submission.
type QuizAnswersRequest struct {
	HousingStatus string    `json:"housing_status" validate:"required,max=50"`
	MonthlyCost   string    `json:"monthly_cost" validate:"required,housing_bracket"`
	IncomeBracket string    `json:"income_bracket" validate:"required,income_bracket"`
	AgeRange      string    `json:"age_range" validate:"omitempty,age_bracket"`
	Frustration   StringSet `json:"frustration" validate:"min=1,max=10,dive,max=100"`
	Benefit       StringSet `json:"benefit" validate:"min=1,max=10,dive,max=100"`
	Timeline      string    `json:"timeline" validate:"required,max=50"`
	Concern       string    `json:"concern" validate:"omitempty,max=500"`
}

// ClientSavings is the savings figure the browser computed. It is only
// compared against the server result, never stored.
type ClientSavings struct {
	AnnualSavings  *float64 `json:"annual_savings"`
	TaxSavings     *float64 `json:"tax_savings"`
	HousingSavings *float64 `json:"housing_savings"`
	UtilSavings    *float64 `json:"util_savings"`
}

// QuizSubmissionRequest is the body of POST /api/v1/quiz/submit.
type QuizSubmissionRequest struct {
	SessionID          string             `json:"session_id" validate:"required,min=8,max=64"`
	FirstName          string             `json:"first_name" validate:"required,min=2,max=50"`
	Email              string             `json:"email" validate:"required,email,max=254"`
	Phone              string             `json:"phone" validate:"omitempty,usphone"`
	SMSConsent         bool               `json:"sms_consent"`
	Answers            QuizAnswersRequest `json:"answers"`
	SavingsCalculation *ClientSavings     `json:"savings_calculation"`
}

// CreateSessionRequest is the body of POST /api/v1/quiz/sessions.
type CreateSessionRequest struct {
	SessionID   string `json:"session_id" validate:"required,min=8,max=64"`
	UTMSource   string `json:"utm_source" validate:"omitempty,max=200"`
	UTMMedium   string `json:"utm_medium" validate:"omitempty,max=200"`
	UTMCampaign string `json:"utm_campaign" validate:"omitempty,max=200"`
	UTMTerm     string `json:"utm_term" validate:"omitempty,max=200"`
	UTMContent  string `json:"utm_content" validate:"omitempty,max=200"`
	Referrer    string `json:"referrer" validate:"omitempty,max=2048"`
	DeviceType  string `json:"device_type" validate:"omitempty,max=50"`
	Browser     string `json:"browser" validate:"omitempty,max=100"`
}

// SaveAnswerRequest is the body of POST /api/v1/quiz/sessions/:sessionId/answers.
type SaveAnswerRequest struct {
	Step        int       `json:"step" validate:"min=0,max=50"`
	QuestionKey string    `json:"question_key" validate:"required,max=64"`
	AnswerValue StringSet `json:"answer_value" validate:"min=1,max=20,dive,max=500"`
}

// SubmissionResponse is the success body shared by the public forms.
type SubmissionResponse struct {
	Success bool `json:"success"`
}

// LeadMagnetResponse adds the optional guide link to the success body.
type LeadMagnetResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"download_url,omitempty"`
}

// QuizSubmissionResponse is returned on an accepted quiz.
type QuizSubmissionResponse struct {
	Success       bool              `json:"success"`
	Tier          string            `json:"tier"`
	AnnualSavings int64             `json:"annual_savings"`
	Savings       savings.Breakdown `json:"savings"`
}

// SessionResponse is returned when a quiz session is registered.
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// ListLeadsQuery filters the admin lead list.
type ListLeadsQuery struct {
	FormType string `form:"form_type" validate:"omitempty,oneof=contact lead_magnet quiz"`
	Tier     string `form:"tier" validate:"omitempty,oneof=hot warm cold"`
	Status   string `form:"status" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

// UpdateLeadRequest patches the admin workflow fields of a lead.
type UpdateLeadRequest struct {
	Status     *string   `json:"status" validate:"omitempty,oneof=new contacted qualified converted lost"`
	AdminNotes *string   `json:"admin_notes" validate:"omitempty,max=5000"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=30,dive,min=1,max=50"`
}

// LeadResponse is the admin view of a lead.
type LeadResponse struct {
	ID              string             `json:"id"`
	FormType        string             `json:"form_type"`
	Email           string             `json:"email"`
	FirstName       string             `json:"first_name,omitempty"`
	LastName        string             `json:"last_name,omitempty"`
	Phone           string             `json:"phone,omitempty"`
	SMSConsent      bool               `json:"sms_consent"`
	Location        string             `json:"location,omitempty"`
	InvestmentRange string             `json:"investment_range,omitempty"`
	Message         string             `json:"message,omitempty"`
	SessionID       string             `json:"session_id,omitempty"`
	Answers         any                `json:"answers,omitempty"`
	Savings         *savings.Breakdown `json:"savings,omitempty"`
	AnnualSavings   *int64             `json:"annual_savings,omitempty"`
	Tier            string             `json:"tier,omitempty"`
	Priority        string             `json:"priority,omitempty"`
	Tags            []string           `json:"tags"`
	Status          string             `json:"status"`
	AdminNotes      string             `json:"admin_notes,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ListLeadsResponse is a page of leads plus the unpaged total.
type ListLeadsResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}
