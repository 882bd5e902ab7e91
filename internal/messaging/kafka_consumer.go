package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/service"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/backtest"
)

// errPoison marks a message that can never succeed. It is committed so it is not redelivered.
var errPoison = errors.New("unprocessable message")

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 500 * time.Millisecond
)

// messageWriter is the subset of *kafka.Writer the consumer publishes with
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer consumes backtest requests from Kafka and runs them
type KafkaConsumer struct {
	reader          *kafka.Reader
	writer          messageWriter
	backtester      service.Backtester
	defaultStrategy string
	maxAttempts     int
	retryBackoff    time.Duration
	logger          zerolog.Logger
}

// KafkaConsumerConfig holds Kafka consumer configuration
type KafkaConsumerConfig struct {
	Brokers         []string // e.g., ["localhost:9092"]
	Topic           string   // e.g., "backtest_requests"
	GroupID         string   // e.g., "nfl-backtest"
	ResultsTopic    string   // e.g., "backtest_results"; empty disables publishing
	DefaultStrategy string   // used when a request names no strategy
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(
	config KafkaConsumerConfig,
	backtester service.Backtester,
	logger zerolog.Logger,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       50e6, // 50MB, a season of games with features
		CommitInterval: time.Second,
	})

	var writer messageWriter
	if config.ResultsTopic != "" {
		writer = &kafka.Writer{
			Addr:         kafka.TCP(config.Brokers...),
			Topic:        config.ResultsTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		}
	}

	return &KafkaConsumer{
		reader:          reader,
		writer:          writer,
		backtester:      backtester,
		defaultStrategy: config.DefaultStrategy,
		maxAttempts:     defaultMaxAttempts,
		retryBackoff:    defaultRetryBackoff,
		logger:          logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages from Kafka
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka consumer")
			return nil

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.handleMessage(ctx, msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Only shutdown leaves a message uncommitted
				if !errors.Is(err, errPoison) {
					continue
				}
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// handleMessage processes a message, retrying transient failures in place.
// A group offset cannot be rewound once a later message commits, so a request that
// still fails after maxAttempts is reported on the results topic and committed.
func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	backoff := c.retryBackoff

	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.processMessage(ctx, msg)
		if err == nil || errors.Is(err, errPoison) {
			return err
		}
		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Str("key", string(msg.Key)).
			Msg("retrying backtest request")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	var request models.KafkaBacktestRequestMessage
	if jsonErr := json.Unmarshal(msg.Value, &request); jsonErr == nil {
		if request.Strategy == "" {
			request.Strategy = c.defaultStrategy
		}
		c.publish(ctx, request, models.KafkaBacktestResultMessage{
			RequestID: request.RequestID,
			Strategy:  request.Strategy,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
	}
	return fmt.Errorf("%w: gave up after %d attempts: %v", errPoison, c.maxAttempts, err)
}

// processMessage runs the backtest a single message requests
func (c *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var request models.KafkaBacktestRequestMessage
	if err := json.Unmarshal(msg.Value, &request); err != nil {
		return fmt.Errorf("%w: failed to unmarshal message: %v", errPoison, err)
	}
	if request.Strategy == "" {
		request.Strategy = c.defaultStrategy
	}

	c.logger.Debug().
		Str("request_id", request.RequestID).
		Str("strategy", request.Strategy).
		Int("game_count", len(request.Games)).
		Msg("processing backtest request")

	result, err := c.backtester.RunBacktest(ctx, request.Strategy, request.Games)
	if err != nil {
		if !isPermanent(err) {
			return fmt.Errorf("backtest failed: %w", err)
		}
		c.publish(ctx, request, models.KafkaBacktestResultMessage{
			RequestID: request.RequestID,
			Strategy:  request.Strategy,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return fmt.Errorf("%w: %v", errPoison, err)
	}

	c.publish(ctx, request, models.KafkaBacktestResultMessage{
		RequestID: request.RequestID,
		RunID:     result.RunID.String(),
		Strategy:  result.Strategy,
		Report:    result.Report,
		Timestamp: time.Now().UTC(),
	})

	c.logger.Info().
		Str("request_id", request.RequestID).
		Str("run_id", result.RunID.String()).
		Str("verdict", result.Report.Verdict).
		Msg("processed backtest request")

	return nil
}

// publish writes a run summary to the results topic. Failures are logged only.
func (c *KafkaConsumer) publish(ctx context.Context, request models.KafkaBacktestRequestMessage, summary models.KafkaBacktestResultMessage) {
	if c.writer == nil {
		return
	}

	value, err := json.Marshal(summary)
	if err != nil {
		c.logger.Error().Err(err).Str("request_id", request.RequestID).Msg("failed to marshal result summary")
		return
	}

	if err := c.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(request.RequestID),
		Value: value,
	}); err != nil {
		c.logger.Warn().Err(err).Str("request_id", request.RequestID).Msg("failed to publish result summary")
	}
}

// isPermanent reports whether retrying the same request can never succeed
func isPermanent(err error) bool {
	var validation *backtest.ValidationError
	var violation *backtest.InvariantViolation
	return errors.As(err, &validation) ||
		errors.As(err, &violation) ||
		errors.Is(err, backtest.ErrUnknownStrategy)
}

// Close closes the Kafka reader and writer
func (c *KafkaConsumer) Close() error {
	if c.writer != nil {
		if err := c.writer.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close result writer")
		}
	}
	return c.reader.Close()
}
