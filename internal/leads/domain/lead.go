// Package domain holds the lead intake types and the pure scoring rules
// shared by the pipeline, the repository and the admin API.
package domain

import (
	"time"

	"relocation_quiz_backend/internal/savings"

	"github.com/google/uuid"
)

// FormType identifies which public form produced a lead.
type FormType string

const (
	FormContact    FormType = "contact"
	FormLeadMagnet FormType = "lead_magnet"
	FormQuiz       FormType = "quiz"
)

// Status is the admin workflow state of a lead. The pipeline only ever
// writes StatusNew.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

var knownStatuses = map[Status]struct{}{
	StatusNew:       {},
	StatusContacted: {},
	StatusQualified: {},
	StatusConverted: {},
	StatusLost:      {},
}

func IsKnownStatus(s string) bool {
	_, ok := knownStatuses[Status(s)]
	return ok
}

func IsKnownFormType(s string) bool {
	switch FormType(s) {
	case FormContact, FormLeadMagnet, FormQuiz:
		return true
	}
	return false
}

// QuizAnswers is the canonical answer set. Multi-select answers are always
// sorted, de-duplicated slices by the time they reach this type.
type QuizAnswers struct {
	HousingStatus string   `json:"housing_status"`
	MonthlyCost   string   `json:"monthly_cost"`
	IncomeBracket string   `json:"income_bracket"`
	AgeRange      string   `json:"age_range,omitempty"`
	Frustration   []string `json:"frustration"`
	Benefit       []string `json:"benefit"`
	Timeline      string   `json:"timeline"`
	Concern       string   `json:"concern,omitempty"`
}

// Lead is the terminal record of every form submission.
type Lead struct {
	ID              uuid.UUID
	FormType        FormType
	Email           string
	FirstName       string
	LastName        string
	Phone           string
	SMSConsent      bool
	Location        string
	InvestmentRange string
	Message         string
	SessionID       string
	Answers         *QuizAnswers
	Savings         *savings.Breakdown
	AnnualSavings   *int64
	Tier            Tier
	Priority        Priority
	Tags            []string
	Status          Status
	AdminNotes      string
	IPAddress       string
	UserAgent       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuizSession is created once per quiz attempt and never changes afterwards.
type QuizSession struct {
	SessionID   string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMTerm     string
	UTMContent  string
	Referrer    string
	DeviceType  string
	Browser     string
	CreatedAt   time.Time
}

// QuizAnswer is one answer per question per session.
type QuizAnswer struct {
	SessionID   string
	Step        int
	QuestionKey string
	Value       []string
}

// RateLimitRecord marks one accepted submission for throttling.
type RateLimitRecord struct {
	Email       string
	FormType    FormType
	IPAddress   string
	SubmittedAt time.Time
}
