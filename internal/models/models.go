package models

import "time"

// LeadFeatures is one lead record submitted for scoring. All fields are
// optional on the wire; bounds are enforced at ingestion and never clamped.
type LeadFeatures struct {
	// Contact attributes
	CompanySize    *string `json:"company_size,omitempty"`
	Industry       *string `json:"industry,omitempty"`
	JobTitle       *string `json:"job_title,omitempty"`
	SeniorityLevel *string `json:"seniority_level,omitempty"`
	Geography      *string `json:"geography,omitempty"`

	// Behavioral features
	EmailEngagementScore *float64 `json:"email_engagement_score,omitempty"`
	WebsiteSessions      *int     `json:"website_sessions,omitempty"`
	PagesViewed          *int     `json:"pages_viewed,omitempty"`
	TimeOnSite           *float64 `json:"time_on_site,omitempty"`
	FormFills            *int     `json:"form_fills,omitempty"`
	ContentDownloads     *int     `json:"content_downloads,omitempty"`

	// Campaign interaction
	CampaignTouchpoints     *int       `json:"campaign_touchpoints,omitempty"`
	LastCampaignInteraction *time.Time `json:"last_campaign_interaction,omitempty"`

	// Account-level features
	AccountRevenue   *float64 `json:"account_revenue,omitempty"`
	AccountEmployees *int     `json:"account_employees,omitempty"`
	ExistingCustomer *bool    `json:"existing_customer,omitempty"`

	// Open-ended numeric features, pulled by exact key match against the
	// model schema.
	CustomFeatures map[string]float64 `json:"custom_features,omitempty"`
}

// ScoreRequest is the inbound batch. RequestId is generated when the caller
// does not supply one.
type ScoreRequest struct {
	RequestId string         `json:"request_id"`
	Leads     []LeadFeatures `json:"leads"`
}

// LeadScore is one scored row. Scores stay in [1,5] and confidences in [0,1]
// regardless of raw model output.
type LeadScore struct {
	Score            int     `json:"score"`
	Confidence       float64 `json:"confidence"`
	FeaturesUsed     int     `json:"features_used"`
	PredictionTimeMs float64 `json:"prediction_time_ms"`
}

// ScoreResponse echoes the request id and preserves input order in Scores.
type ScoreResponse struct {
	RequestId        string      `json:"request_id"`
	Timestamp        time.Time   `json:"timestamp"`
	TotalLeads       int         `json:"total_leads"`
	ProcessingTimeMs float64     `json:"processing_time_ms"`
	Scores           []LeadScore `json:"scores"`
	ModelVersion     string      `json:"model_version"`
	Status           string      `json:"status"`
}

// ModelInfo describes the loaded artifact for the info endpoint.
type ModelInfo struct {
	Version       string `json:"version"`
	FeaturesCount int    `json:"features_count"`
	Loaded        bool   `json:"loaded"`
	ModelType     string `json:"model_type"`
}

// HealthCheck is the health endpoint payload.
type HealthCheck struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	ModelLoaded   bool      `json:"model_loaded"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}
