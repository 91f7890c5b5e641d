// cmd/worker-manager/stores.go
package main

import (
	"context"
	"fmt"
	"time"

	"room-redesign-workers/internal/common/analytics"
	commonaws "room-redesign-workers/internal/common/aws"
	"room-redesign-workers/internal/common/config"
	"room-redesign-workers/internal/common/database"
	apperrors "room-redesign-workers/internal/common/errors"
	"room-redesign-workers/internal/common/logger"

	"go.uber.org/zap"
)

// stores holds the connections opened for the enabled analytics sinks. Unused
// stores stay nil.
type stores struct {
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

// storeRetryDelay is the first pause between connection attempts; it doubles
// after each failure.
var storeRetryDelay = 2 * time.Second

func connectStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	s := &stores{}
	if !cfg.Analytics.Enabled {
		return s, nil
	}
	sinks := cfg.Analytics.Sinks

	if sinks.Postgres.Enabled {
		err := retryWithBackoff(func() error {
			var err error
			s.pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return s.pg.Ping(ctx)
		}, 15, storeRetryDelay, log, "PostgreSQL connection")
		if err != nil {
			return s, apperrors.NewDatabaseUnavailableError(err)
		}
		log.Info("PostgreSQL connected successfully")
	}

	if sinks.Redis.Enabled {
		err := retryWithBackoff(func() error {
			var err error
			s.redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return s.redis.Ping(ctx)
		}, 10, storeRetryDelay, log, "Redis connection")
		if err != nil {
			return s, apperrors.NewDatabaseUnavailableError(err)
		}
		log.Info("Redis connected successfully")
	}

	if sinks.Elasticsearch.Enabled {
		err := retryWithBackoff(func() error {
			var err error
			s.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return s.es.Ping(ctx)
		}, 15, storeRetryDelay, log, "Elasticsearch connection")
		if err != nil {
			return s, apperrors.NewDatabaseUnavailableError(err)
		}
		log.Info("Elasticsearch connected successfully")
	}

	return s, nil
}

func (s *stores) Close() {
	if s.pg != nil {
		_ = s.pg.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func buildSinks(ctx context.Context, cfg *config.Config, s *stores, log logger.Logger) ([]analytics.Sink, error) {
	if !cfg.Analytics.Enabled {
		return nil, nil
	}
	conf := cfg.Analytics.Sinks

	var sinks []analytics.Sink
	if conf.Log.Enabled {
		sinks = append(sinks, analytics.NewLogSink(log))
	}
	if conf.Redis.Enabled {
		sinks = append(sinks, analytics.NewRedisStreamSink(s.redis.Client, conf.Redis.Stream, conf.Redis.MaxLen))
	}
	if conf.Postgres.Enabled {
		sink, err := analytics.NewPostgresSink(s.pg.DB, conf.Postgres.Table)
		if err != nil {
			return nil, apperrors.NewAnalyticsUnavailableError("postgres", err)
		}
		if conf.Postgres.CreateSchema {
			if err := sink.EnsureSchema(ctx); err != nil {
				return nil, apperrors.NewAnalyticsUnavailableError(sink.Name(), err)
			}
		}
		sinks = append(sinks, sink)
	}
	if conf.Elasticsearch.Enabled {
		sinks = append(sinks, analytics.NewElasticsearchSink(s.es.Client, conf.Elasticsearch.Index))
	}

	if conf.SNS.Enabled || conf.SES.Enabled {
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, apperrors.NewAnalyticsUnavailableError("aws", fmt.Errorf("load aws config: %w", err))
		}
		if conf.SNS.Enabled {
			sinks = append(sinks, analytics.NewSNSSink(commonaws.NewSNSClient(awsCfg), conf.SNS.TopicARN))
		}
		if conf.SES.Enabled {
			sinks = append(sinks, analytics.NewFailureAlertSink(commonaws.NewSESClient(awsCfg), conf.SES.FromEmail, conf.SES.Recipients))
		}
	}

	return sinks, nil
}
