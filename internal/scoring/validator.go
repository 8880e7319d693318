package scoring

import (
	"fmt"

	apperrors "github.com/growthml/leadscore/internal/errors"
	"github.com/growthml/leadscore/internal/models"
)

// Validator enforces request-level and per-lead bounds before any encoding
// happens. Violations reject the whole batch; nothing is clamped or skipped.
type Validator struct {
	maxLeads          int
	maxCustomFeatures int
}

func NewValidator(maxLeads, maxCustomFeatures int) *Validator {
	return &Validator{
		maxLeads:          maxLeads,
		maxCustomFeatures: maxCustomFeatures,
	}
}

func (v *Validator) ValidateRequest(req *models.ScoreRequest) error {
	if len(req.Leads) == 0 {
		return &apperrors.ValidationError{ErrorMsg: "leads list must not be empty"}
	}
	if len(req.Leads) > v.maxLeads {
		return &apperrors.BatchSizeError{
			ErrorMsg: fmt.Sprintf("batch of %d leads exceeds the maximum of %d", len(req.Leads), v.maxLeads),
		}
	}

	for i := range req.Leads {
		if err := v.validateLead(&req.Leads[i], i); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateLead(lead *models.LeadFeatures, index int) error {
	if lead.EmailEngagementScore != nil {
		if s := *lead.EmailEngagementScore; s < 0 || s > 1 {
			return leadError(index, "email_engagement_score must be between 0 and 1, got %g", s)
		}
	}
	if err := nonNegativeInt(index, "website_sessions", lead.WebsiteSessions); err != nil {
		return err
	}
	if err := nonNegativeInt(index, "pages_viewed", lead.PagesViewed); err != nil {
		return err
	}
	if err := nonNegativeFloat(index, "time_on_site", lead.TimeOnSite); err != nil {
		return err
	}
	if err := nonNegativeInt(index, "form_fills", lead.FormFills); err != nil {
		return err
	}
	if err := nonNegativeInt(index, "content_downloads", lead.ContentDownloads); err != nil {
		return err
	}
	if err := nonNegativeInt(index, "campaign_touchpoints", lead.CampaignTouchpoints); err != nil {
		return err
	}
	if err := nonNegativeFloat(index, "account_revenue", lead.AccountRevenue); err != nil {
		return err
	}
	if err := nonNegativeInt(index, "account_employees", lead.AccountEmployees); err != nil {
		return err
	}

	if len(lead.CustomFeatures) > v.maxCustomFeatures {
		return leadError(index, "%d custom features exceed the maximum of %d",
			len(lead.CustomFeatures), v.maxCustomFeatures)
	}
	return nil
}

func nonNegativeInt(index int, field string, v *int) error {
	if v != nil && *v < 0 {
		return leadError(index, "%s must not be negative, got %d", field, *v)
	}
	return nil
}

func nonNegativeFloat(index int, field string, v *float64) error {
	if v != nil && *v < 0 {
		return leadError(index, "%s must not be negative, got %g", field, *v)
	}
	return nil
}

func leadError(index int, format string, args ...interface{}) error {
	return &apperrors.ValidationError{
		ErrorMsg: fmt.Sprintf("lead %d: %s", index, fmt.Sprintf(format, args...)),
	}
}
