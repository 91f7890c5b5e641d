package analytics

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"room-redesign-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

// ==========================
// Log
// ==========================

type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, event Event) error {
	s.logger.Info("analytics event", map[string]interface{}{
		"eventId":    event.ID,
		"event":      event.Name,
		"properties": event.Properties,
	})
	return nil
}

// ==========================
// Redis stream
// ==========================

type RedisStreamSink struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamSink appends to stream, trimming approximately to maxLen
// entries when maxLen is positive.
func NewRedisStreamSink(client redis.Cmdable, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisStreamSink) Name() string { return "redis" }

func (s *RedisStreamSink) Deliver(ctx context.Context, event Event) error {
	props, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"id":         event.ID,
			"event":      event.Name,
			"timestamp":  event.Timestamp.UnixMilli(),
			"properties": string(props),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	return s.client.XAdd(ctx, args).Err()
}

// ==========================
// Postgres
// ==========================

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

type PostgresSink struct {
	db    *sql.DB
	table string
}

func NewPostgresSink(db *sql.DB, table string) (*PostgresSink, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid analytics table name %q", table)
	}
	return &PostgresSink{db: db, table: table}, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		event_name TEXT NOT NULL,
		user_id TEXT,
		session_id TEXT,
		properties JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create analytics table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Deliver(ctx context.Context, event Event) error {
	props, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (id, event_name, user_id, session_id, properties, created_at) VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		s.table,
	)
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Name,
		nullable(event.StringProperty("userId")),
		nullable(event.StringProperty("sessionId")),
		string(props),
		event.Timestamp,
	)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ==========================
// Elasticsearch
// ==========================

type ElasticsearchSink struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSink(client *elasticsearch.Client, index string) *ElasticsearchSink {
	return &ElasticsearchSink{client: client, index: index}
}

func (s *ElasticsearchSink) Name() string { return "elasticsearch" }

func (s *ElasticsearchSink) Deliver(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(event.ID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index event: %s", res.Status())
	}
	return nil
}

// ==========================
// SNS
// ==========================

type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSSink struct {
	client   SNSPublisher
	topicARN string
}

func NewSNSSink(client SNSPublisher, topicARN string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN}
}

func (s *SNSSink) Name() string { return "sns" }

func (s *SNSSink) Deliver(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventName": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.Name),
			},
		},
	})
	return err
}

// ==========================
// SES failure alerts
// ==========================

type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// FailureAlertSink emails operators about failure events and ignores the rest.
type FailureAlertSink struct {
	client     EmailSender
	from       string
	recipients []string
}

func NewFailureAlertSink(client EmailSender, from string, recipients []string) *FailureAlertSink {
	return &FailureAlertSink{client: client, from: from, recipients: recipients}
}

func (s *FailureAlertSink) Name() string { return "ses" }

func (s *FailureAlertSink) Deliver(ctx context.Context, event Event) error {
	if !event.IsFailure() || len(s.recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("[room-redesign] %s", event.Name)
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: s.recipients,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(alertBody(event))},
			},
		},
	})
	return err
}

func alertBody(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\nEvent ID: %s\nTime: %s\n\n", event.Name, event.ID, event.Timestamp.Format("2006-01-02T15:04:05Z07:00"))

	keys := make([]string, 0, len(event.Properties))
	for k := range event.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, event.Properties[k])
	}
	return b.String()
}
