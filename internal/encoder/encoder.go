package encoder

import (
	"time"

	"github.com/growthml/leadscore/internal/models"
)

// Encoder vectorizes lead records into the fixed-width matrix a loaded
// model expects. Mapping tables are compiled once per schema; encoding a
// batch allocates only the matrix itself.
type Encoder struct {
	schema  *Schema
	lookups map[string]lookup
}

func NewEncoder(schema *Schema) *Encoder {
	lookups := make(map[string]lookup, len(schema.CategoricalMappings))
	for field, known := range schema.CategoricalMappings {
		lookups[field] = compileLookup(known)
	}
	// A field without a mapping table still follows the 3-way policy: with
	// zero known values everything present encodes as unknown (1), never 0.
	for _, field := range categoricalFields {
		if _, ok := lookups[field]; !ok {
			lookups[field] = compileLookup(nil)
		}
	}
	return &Encoder{
		schema:  schema,
		lookups: lookups,
	}
}

// Encode produces one matrix row per lead, columns ordered exactly as the
// schema declares. Columns the encoder does not recognize are pulled from
// the lead's custom feature map by exact key; absent keys stay 0.0.
// Bounds are the ingestion layer's problem; only presence is handled here.
func (e *Encoder) Encode(leads []models.LeadFeatures, now time.Time) *Matrix {
	m := NewMatrix(len(leads), e.schema.FeatureColumns)

	for i := range leads {
		lead := &leads[i]
		row := m.Row(i)
		for j, col := range e.schema.FeatureColumns {
			row[j] = e.featureValue(lead, col, now)
		}
	}
	return m
}

func (e *Encoder) featureValue(lead *models.LeadFeatures, column string, now time.Time) float64 {
	switch column {
	case ColCompanySize:
		return e.lookups[FieldCompanySize].encode(lead.CompanySize)
	case ColIndustry:
		return e.lookups[FieldIndustry].encode(lead.Industry)
	case ColJobTitle:
		return e.lookups[FieldJobTitle].encode(lead.JobTitle)
	case ColSeniorityLevel:
		return e.lookups[FieldSeniorityLevel].encode(lead.SeniorityLevel)
	case ColGeography:
		return e.lookups[FieldGeography].encode(lead.Geography)
	case ColEmailEngagement:
		return floatOrZero(lead.EmailEngagementScore)
	case ColWebsiteSessions:
		return intOrZero(lead.WebsiteSessions)
	case ColPagesViewed:
		return intOrZero(lead.PagesViewed)
	case ColTimeOnSite:
		return floatOrZero(lead.TimeOnSite)
	case ColFormFills:
		return intOrZero(lead.FormFills)
	case ColContentDownloads:
		return intOrZero(lead.ContentDownloads)
	case ColCampaignTouchpoints:
		return intOrZero(lead.CampaignTouchpoints)
	case ColAccountRevenue:
		return floatOrZero(lead.AccountRevenue)
	case ColAccountEmployees:
		return intOrZero(lead.AccountEmployees)
	case ColExistingCustomer:
		if lead.ExistingCustomer != nil && *lead.ExistingCustomer {
			return 1
		}
		return 0
	case ColDaysSinceInteraction:
		return daysSinceInteraction(lead.LastCampaignInteraction, now)
	default:
		// Custom feature declared by the schema; exact key match only.
		if lead.CustomFeatures != nil {
			if v, ok := lead.CustomFeatures[column]; ok {
				return v
			}
		}
		return 0
	}
}

// daysSinceInteraction derives whole days elapsed, floored at zero for
// interactions stamped in the future. No timestamp at all yields the
// sentinel, not zero.
func daysSinceInteraction(ts *time.Time, now time.Time) float64 {
	if ts == nil {
		return DaysSinceInteractionSentinel
	}
	days := int(now.Sub(*ts).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return float64(days)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
