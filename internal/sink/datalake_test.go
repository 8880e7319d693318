package sink

import (
	"context"
	"testing"
	"time"

	"github.com/growthml/leadscore/internal/config"
	"github.com/growthml/leadscore/internal/encoder"
	"github.com/growthml/leadscore/internal/models"
)

func testResultSet() *ResultSet {
	sessions := 7
	industry := "saas"
	features := encoder.NewMatrix(2, []string{"website_sessions", "industry_encoded"})
	features.Set(0, "website_sessions", 7)
	features.Set(0, "industry_encoded", 1)
	features.Set(1, "website_sessions", 0)

	return &ResultSet{
		RequestId: "req-42",
		Timestamp: time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
		Leads: []models.LeadFeatures{
			{WebsiteSessions: &sessions, Industry: &industry, CustomFeatures: map[string]float64{"fit": 0.5}},
			{},
		},
		Scores: []models.LeadScore{
			{Score: 4, Confidence: 0.92, FeaturesUsed: 3},
			{Score: 1, Confidence: 0.55, FeaturesUsed: 0},
		},
		Features:         features,
		ProcessingTimeMs: 10,
		ModelVersion:     "1.0.0",
	}
}

func TestPartitionKey(t *testing.T) {
	ts := time.Date(2026, 1, 5, 23, 59, 59, 0, time.UTC)

	got := partitionKey("predictions", "req-42", ts)
	expected := "predictions/year=2026/month=01/day=05/batch_req-42_1767657599.parquet"
	if got != expected {
		t.Errorf("partitionKey = %s, expected %s", got, expected)
	}
}

func TestBuildLakeRecords(t *testing.T) {
	records := buildLakeRecords(testResultSet())

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.LeadId != "req-42_0" || records[1].LeadId != "req-42_1" {
		t.Errorf("lead ids = %s, %s; expected req-42_0, req-42_1", first.LeadId, records[1].LeadId)
	}
	if first.Score != 4 || first.Confidence != 0.92 {
		t.Errorf("score fields not carried over: %+v", first)
	}
	if first.ProcessingTimeMs != 5 {
		t.Errorf("per-lead processing time = %v, expected even share 5", first.ProcessingTimeMs)
	}
	if first.RawWebsiteSessions == nil || *first.RawWebsiteSessions != 7 {
		t.Error("raw website_sessions not carried over")
	}
	if first.RawIndustry == nil || *first.RawIndustry != "saas" {
		t.Error("raw industry not carried over")
	}
	if first.Engineered["engineered_website_sessions"] != 7 {
		t.Errorf("engineered columns = %v, expected engineered_website_sessions=7", first.Engineered)
	}
	if first.RawCustomFeatures["fit"] != 0.5 {
		t.Error("custom features not carried over")
	}

	second := records[1]
	if second.RawWebsiteSessions != nil || second.RawIndustry != nil {
		t.Error("absent raw fields must stay nil")
	}
	if second.Score != 1 {
		t.Errorf("second score = %d, expected 1", second.Score)
	}
}

func TestDataLakeWriterNoDestinationsConfigured(t *testing.T) {
	w := NewDataLakeWriter(&config.Configs{})

	if err := w.Write(context.Background(), testResultSet()); err != nil {
		t.Errorf("write with no destinations must be a no-op, got %v", err)
	}
}

func TestMetricsPublisherWrite(t *testing.T) {
	p := NewMetricsPublisher()

	if err := p.Write(context.Background(), testResultSet()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.Write(context.Background(), &ResultSet{}); err != nil {
		t.Errorf("empty result set must be a no-op, got %v", err)
	}
}
