package transport

import (
	"relocation_quiz_backend/internal/leads/domain"
)

// ToLeadResponse maps a stored lead to its admin view.
func ToLeadResponse(lead domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:              lead.ID.String(),
		FormType:        string(lead.FormType),
		Email:           lead.Email,
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Phone:           lead.Phone,
		SMSConsent:      lead.SMSConsent,
		Location:        lead.Location,
		InvestmentRange: lead.InvestmentRange,
		Message:         lead.Message,
		SessionID:       lead.SessionID,
		Savings:         lead.Savings,
		AnnualSavings:   lead.AnnualSavings,
		Tier:            string(lead.Tier),
		Priority:        string(lead.Priority),
		Tags:            lead.Tags,
		Status:          string(lead.Status),
		AdminNotes:      lead.AdminNotes,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
	if lead.Answers != nil {
		resp.Answers = lead.Answers
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	return resp
}

// ToLeadResponses maps a page of leads.
func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	items := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}
	return items
}
