package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/growthml/leadscore/internal/config"
	"github.com/growthml/leadscore/internal/objectstore"
	"github.com/growthml/leadscore/pkg/logger"
	"github.com/parquet-go/parquet-go"
	kafka "github.com/segmentio/kafka-go"
)

// lakeRecord is one flattened prediction row in the partitioned dataset.
// Raw input fields keep the raw_ prefix and engineered model inputs the
// engineered_ prefix; existing consumers depend on these names.
type lakeRecord struct {
	Timestamp        string  `json:"timestamp" parquet:"timestamp"`
	RequestId        string  `json:"request_id" parquet:"request_id"`
	LeadId           string  `json:"lead_id" parquet:"lead_id"`
	ModelVersion     string  `json:"model_version" parquet:"model_version"`
	ProcessingTimeMs float64 `json:"processing_time_ms" parquet:"processing_time_ms"`

	Score        int32   `json:"score" parquet:"score"`
	Confidence   float64 `json:"confidence" parquet:"confidence"`
	FeaturesUsed int32   `json:"features_used" parquet:"features_used"`

	RawCompanySize             *string  `json:"raw_company_size" parquet:"raw_company_size,optional"`
	RawIndustry                *string  `json:"raw_industry" parquet:"raw_industry,optional"`
	RawJobTitle                *string  `json:"raw_job_title" parquet:"raw_job_title,optional"`
	RawSeniorityLevel          *string  `json:"raw_seniority_level" parquet:"raw_seniority_level,optional"`
	RawGeography               *string  `json:"raw_geography" parquet:"raw_geography,optional"`
	RawEmailEngagementScore    *float64 `json:"raw_email_engagement_score" parquet:"raw_email_engagement_score,optional"`
	RawWebsiteSessions         *int     `json:"raw_website_sessions" parquet:"raw_website_sessions,optional"`
	RawPagesViewed             *int     `json:"raw_pages_viewed" parquet:"raw_pages_viewed,optional"`
	RawTimeOnSite              *float64 `json:"raw_time_on_site" parquet:"raw_time_on_site,optional"`
	RawFormFills               *int     `json:"raw_form_fills" parquet:"raw_form_fills,optional"`
	RawContentDownloads        *int     `json:"raw_content_downloads" parquet:"raw_content_downloads,optional"`
	RawCampaignTouchpoints     *int     `json:"raw_campaign_touchpoints" parquet:"raw_campaign_touchpoints,optional"`
	RawLastCampaignInteraction *string  `json:"raw_last_campaign_interaction" parquet:"raw_last_campaign_interaction,optional"`
	RawAccountRevenue          *float64 `json:"raw_account_revenue" parquet:"raw_account_revenue,optional"`
	RawAccountEmployees        *int     `json:"raw_account_employees" parquet:"raw_account_employees,optional"`
	RawExistingCustomer        *bool    `json:"raw_existing_customer" parquet:"raw_existing_customer,optional"`

	RawCustomFeatures map[string]float64 `json:"raw_custom_features" parquet:"raw_custom_features"`
	Engineered        map[string]float64 `json:"engineered" parquet:"engineered"`
}

// DataLakeWriter delivers result sets to a partitioned parquet dataset in
// S3 and to a Kafka stream. Destinations are attempted concurrently; a
// failure in one does not block the other. Client handles are built lazily
// exactly once and reused across calls.
type DataLakeWriter struct {
	cfg *config.Configs

	s3Once sync.Once
	s3     objectstore.Writer
	s3Err  error

	kafkaOnce   sync.Once
	kafkaWriter *kafka.Writer
}

func NewDataLakeWriter(cfg *config.Configs) *DataLakeWriter {
	return &DataLakeWriter{cfg: cfg}
}

// NewDataLakeWriterWithClients injects pre-built destination clients.
func NewDataLakeWriterWithClients(cfg *config.Configs, s3 objectstore.Writer, kw *kafka.Writer) *DataLakeWriter {
	w := &DataLakeWriter{cfg: cfg, s3: s3, kafkaWriter: kw}
	w.s3Once.Do(func() {})
	w.kafkaOnce.Do(func() {})
	return w
}

func (w *DataLakeWriter) Name() string {
	return "data-lake"
}

func (w *DataLakeWriter) Write(ctx context.Context, rs *ResultSet) error {
	records := buildLakeRecords(rs)

	type destination struct {
		name string
		run  func() error
	}
	var destinations []destination
	if w.cfg.DataLakeBucket != "" {
		destinations = append(destinations, destination{"s3", func() error { return w.writeParquet(ctx, rs, records) }})
	}
	if w.cfg.KafkaBootstrapServers != "" && w.cfg.KafkaScoreTopic != "" {
		destinations = append(destinations, destination{"kafka", func() error { return w.writeKafka(ctx, rs, records) }})
	}
	if len(destinations) == 0 {
		return nil
	}

	errs := make([]error, len(destinations))
	var wg sync.WaitGroup
	wg.Add(len(destinations))
	for i, d := range destinations {
		i, d := i, d
		go func() {
			defer wg.Done()
			if err := d.run(); err != nil {
				logger.Error(fmt.Sprintf("Data lake destination %s failed for request %s", d.name, rs.RequestId), err)
				errs[i] = fmt.Errorf("%s: %w", d.name, err)
			}
		}()
	}
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d data lake destinations failed", failed, len(destinations))
	}
	return nil
}

func buildLakeRecords(rs *ResultSet) []lakeRecord {
	timestamp := rs.Timestamp.UTC().Format(time.RFC3339)
	perLeadMs := rs.ProcessingTimeMs
	if len(rs.Scores) > 0 {
		perLeadMs = rs.ProcessingTimeMs / float64(len(rs.Scores))
	}

	records := make([]lakeRecord, len(rs.Scores))
	for i := range rs.Scores {
		lead := &rs.Leads[i]
		score := &rs.Scores[i]

		engineered := make(map[string]float64, rs.Features.ColumnCount())
		row := rs.Features.Row(i)
		for j, col := range rs.Features.Columns() {
			engineered["engineered_"+col] = row[j]
		}

		var lastInteraction *string
		if lead.LastCampaignInteraction != nil {
			s := lead.LastCampaignInteraction.UTC().Format(time.RFC3339)
			lastInteraction = &s
		}

		records[i] = lakeRecord{
			Timestamp:        timestamp,
			RequestId:        rs.RequestId,
			LeadId:           fmt.Sprintf("%s_%d", rs.RequestId, i),
			ModelVersion:     rs.ModelVersion,
			ProcessingTimeMs: perLeadMs,

			Score:        int32(score.Score),
			Confidence:   score.Confidence,
			FeaturesUsed: int32(score.FeaturesUsed),

			RawCompanySize:             lead.CompanySize,
			RawIndustry:                lead.Industry,
			RawJobTitle:                lead.JobTitle,
			RawSeniorityLevel:          lead.SeniorityLevel,
			RawGeography:               lead.Geography,
			RawEmailEngagementScore:    lead.EmailEngagementScore,
			RawWebsiteSessions:         lead.WebsiteSessions,
			RawPagesViewed:             lead.PagesViewed,
			RawTimeOnSite:              lead.TimeOnSite,
			RawFormFills:               lead.FormFills,
			RawContentDownloads:        lead.ContentDownloads,
			RawCampaignTouchpoints:     lead.CampaignTouchpoints,
			RawLastCampaignInteraction: lastInteraction,
			RawAccountRevenue:          lead.AccountRevenue,
			RawAccountEmployees:        lead.AccountEmployees,
			RawExistingCustomer:        lead.ExistingCustomer,

			RawCustomFeatures: lead.CustomFeatures,
			Engineered:        engineered,
		}
	}
	return records
}

// partitionKey builds the year/month/day partitioned object key for one
// batch.
func partitionKey(prefix, requestId string, ts time.Time) string {
	ts = ts.UTC()
	return fmt.Sprintf("%s/year=%04d/month=%02d/day=%02d/batch_%s_%d.parquet",
		prefix, ts.Year(), int(ts.Month()), ts.Day(), requestId, ts.Unix())
}

func (w *DataLakeWriter) writeParquet(ctx context.Context, rs *ResultSet, records []lakeRecord) error {
	store, err := w.s3Client(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	pw := parquet.NewGenericWriter[lakeRecord](&buf)
	if _, err := pw.Write(records); err != nil {
		return fmt.Errorf("encoding parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}

	key := partitionKey(w.cfg.DataLakePrefix, rs.RequestId, rs.Timestamp)
	if err := store.PutObject(ctx, key, buf.Bytes(), "application/octet-stream"); err != nil {
		return err
	}
	logger.Debug(fmt.Sprintf("Wrote %d lake records to s3://%s/%s", len(records), store.GetBucketName(), key))
	return nil
}

func (w *DataLakeWriter) writeKafka(ctx context.Context, rs *ResultSet, records []lakeRecord) error {
	writer := w.streamWriter()

	messages := make([]kafka.Message, len(records))
	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("marshalling lake record: %w", err)
		}
		messages[i] = kafka.Message{
			Key:   []byte(rs.RequestId),
			Value: data,
		}
	}
	return writer.WriteMessages(ctx, messages...)
}

// s3Client lazily builds the shared S3 handle; concurrent first uses are
// serialized by the Once.
func (w *DataLakeWriter) s3Client(ctx context.Context) (objectstore.Writer, error) {
	w.s3Once.Do(func() {
		w.s3, w.s3Err = objectstore.NewS3Client(ctx, objectstore.S3Config{
			AccessKeyID:     w.cfg.AWSAccessKeyID,
			SecretAccessKey: w.cfg.AWSSecretAccessKey,
			Region:          w.cfg.AWSRegion,
			Endpoint:        w.cfg.AWSEndpoint,
		}, w.cfg.DataLakeBucket)
	})
	return w.s3, w.s3Err
}

func (w *DataLakeWriter) streamWriter() *kafka.Writer {
	w.kafkaOnce.Do(func() {
		w.kafkaWriter = &kafka.Writer{
			Addr:         kafka.TCP(w.cfg.KafkaBootstrapServers),
			Topic:        w.cfg.KafkaScoreTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		}
		logger.Info(fmt.Sprintf("Kafka score stream writer initialised for topic: %s", w.cfg.KafkaScoreTopic))
	})
	return w.kafkaWriter
}

// Close releases the Kafka handle if it was ever built.
func (w *DataLakeWriter) Close() {
	if w.kafkaWriter != nil {
		if err := w.kafkaWriter.Close(); err != nil {
			logger.Error("Error closing Kafka score stream writer:", err)
		}
	}
}
