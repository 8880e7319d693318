package encoder

// Raw categorical field names used as keys in the artifact's mapping tables.
const (
	FieldCompanySize    = "company_size"
	FieldIndustry       = "industry"
	FieldJobTitle       = "job_title"
	FieldSeniorityLevel = "seniority_level"
	FieldGeography      = "geography"
)

// Engineered column names produced for the base lead attributes.
const (
	ColCompanySize          = "company_size_encoded"
	ColIndustry             = "industry_encoded"
	ColJobTitle             = "job_title_encoded"
	ColSeniorityLevel       = "seniority_level_encoded"
	ColGeography            = "geography_encoded"
	ColEmailEngagement      = "email_engagement_score"
	ColWebsiteSessions      = "website_sessions"
	ColPagesViewed          = "pages_viewed"
	ColTimeOnSite           = "time_on_site"
	ColFormFills            = "form_fills"
	ColContentDownloads     = "content_downloads"
	ColCampaignTouchpoints  = "campaign_touchpoints"
	ColAccountRevenue       = "account_revenue"
	ColAccountEmployees     = "account_employees"
	ColExistingCustomer     = "existing_customer_encoded"
	ColDaysSinceInteraction = "days_since_last_interaction"
)

// DaysSinceInteractionSentinel is reported when a lead has no recorded
// campaign interaction at all.
const DaysSinceInteractionSentinel = 999

// categoricalFields lists every field that encodes through a mapping table.
var categoricalFields = []string{
	FieldCompanySize,
	FieldIndustry,
	FieldJobTitle,
	FieldSeniorityLevel,
	FieldGeography,
}

// Schema is the feature contract a loaded model declares: the ordered
// column list the matrix must follow and the known-value lists for
// categorical encoding.
type Schema struct {
	FeatureColumns      []string            `json:"feature_columns"`
	CategoricalMappings map[string][]string `json:"categorical_mappings"`
}

// lookup is a compiled categorical mapping table. Encoding policy:
// absent value -> 0, known value -> index+1, present-but-unknown -> len+1.
type lookup struct {
	index      map[string]int
	unknownVal float64
}

func compileLookup(known []string) lookup {
	idx := make(map[string]int, len(known))
	for i, v := range known {
		idx[v] = i
	}
	return lookup{index: idx, unknownVal: float64(len(known) + 1)}
}

// encode applies the 3-way categorical policy.
func (l lookup) encode(value *string) float64 {
	if value == nil || *value == "" {
		return 0
	}
	if i, ok := l.index[*value]; ok {
		return float64(i + 1)
	}
	return l.unknownVal
}
