package scoring

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/growthml/leadscore/internal/errors"
	"github.com/growthml/leadscore/internal/models"
)

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func leadBatch(n int) []models.LeadFeatures {
	return make([]models.LeadFeatures, n)
}

func TestValidateRequestBatchBounds(t *testing.T) {
	v := NewValidator(500, 40)

	tests := []struct {
		name        string
		leads       []models.LeadFeatures
		expectedErr interface{}
	}{
		{"empty batch", nil, &apperrors.ValidationError{}},
		{"single lead", leadBatch(1), nil},
		{"at the limit", leadBatch(500), nil},
		{"over the limit", leadBatch(501), &apperrors.BatchSizeError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequest(&models.ScoreRequest{Leads: tt.leads})
			assertErrorType(t, err, tt.expectedErr)
		})
	}
}

func TestValidateLeadFieldBounds(t *testing.T) {
	v := NewValidator(500, 40)

	tests := []struct {
		name    string
		lead    models.LeadFeatures
		invalid bool
	}{
		{"engagement at lower bound", models.LeadFeatures{EmailEngagementScore: floatPtr(0)}, false},
		{"engagement at upper bound", models.LeadFeatures{EmailEngagementScore: floatPtr(1)}, false},
		{"engagement above one", models.LeadFeatures{EmailEngagementScore: floatPtr(1.01)}, true},
		{"engagement negative", models.LeadFeatures{EmailEngagementScore: floatPtr(-0.1)}, true},
		{"negative sessions", models.LeadFeatures{WebsiteSessions: intPtr(-1)}, true},
		{"negative pages viewed", models.LeadFeatures{PagesViewed: intPtr(-3)}, true},
		{"negative time on site", models.LeadFeatures{TimeOnSite: floatPtr(-0.5)}, true},
		{"negative form fills", models.LeadFeatures{FormFills: intPtr(-1)}, true},
		{"negative downloads", models.LeadFeatures{ContentDownloads: intPtr(-2)}, true},
		{"negative touchpoints", models.LeadFeatures{CampaignTouchpoints: intPtr(-1)}, true},
		{"negative revenue", models.LeadFeatures{AccountRevenue: floatPtr(-100)}, true},
		{"negative employees", models.LeadFeatures{AccountEmployees: intPtr(-5)}, true},
		{"zero values are fine", models.LeadFeatures{WebsiteSessions: intPtr(0), AccountRevenue: floatPtr(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequest(&models.ScoreRequest{Leads: []models.LeadFeatures{tt.lead}})
			if tt.invalid {
				assertErrorType(t, err, &apperrors.ValidationError{})
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCustomFeatureCount(t *testing.T) {
	v := NewValidator(500, 40)

	custom := func(n int) map[string]float64 {
		m := make(map[string]float64, n)
		for i := 0; i < n; i++ {
			m[fmt.Sprintf("f%d", i)] = 1
		}
		return m
	}

	atLimit := models.LeadFeatures{CustomFeatures: custom(40)}
	if err := v.ValidateRequest(&models.ScoreRequest{Leads: []models.LeadFeatures{atLimit}}); err != nil {
		t.Errorf("40 custom features must pass, got %v", err)
	}

	overLimit := models.LeadFeatures{CustomFeatures: custom(41)}
	err := v.ValidateRequest(&models.ScoreRequest{Leads: []models.LeadFeatures{overLimit}})
	assertErrorType(t, err, &apperrors.ValidationError{})
}

func TestValidateReportsOffendingLeadIndex(t *testing.T) {
	v := NewValidator(500, 40)

	leads := leadBatch(3)
	leads[2].WebsiteSessions = intPtr(-1)

	err := v.ValidateRequest(&models.ScoreRequest{Leads: leads})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Error(); got != "lead 2: website_sessions must not be negative, got -1" {
		t.Errorf("unexpected message: %s", got)
	}
}

func assertErrorType(t *testing.T, err error, expected interface{}) {
	t.Helper()
	switch expected.(type) {
	case nil:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case *apperrors.ValidationError:
		var target *apperrors.ValidationError
		if !errors.As(err, &target) {
			t.Errorf("expected ValidationError, got %T (%v)", err, err)
		}
	case *apperrors.BatchSizeError:
		var target *apperrors.BatchSizeError
		if !errors.As(err, &target) {
			t.Errorf("expected BatchSizeError, got %T (%v)", err, err)
		}
	default:
		t.Fatalf("unsupported expectation %T", expected)
	}
}
