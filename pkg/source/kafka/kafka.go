// Package kafka reads one topic partition as a line source. Each message
// value is one line. The read stops at the high-water mark seen when the
// source opened, so a partition that keeps growing still ends.
//
// The package registers the kafka:// scheme:
//
//	kafka://broker1:9092,broker2:9092/topic?partition=0&offset=oldest
package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/logger"
	"github.com/ajitpratap0/textreader/pkg/source"
)

// DefaultWaitTimeout bounds the wait for a message that is known to exist
const DefaultWaitTimeout = 30 * time.Second

// Config selects the partition to read
type Config struct {
	Brokers   []string `json:"brokers"`
	Topic     string   `json:"topic"`
	Partition int32    `json:"partition"`
	// Offset is the first offset to read, or sarama.OffsetOldest /
	// sarama.OffsetNewest
	Offset   int64  `json:"offset"`
	ClientID string `json:"client_id"`
	// WaitTimeout bounds the wait for each message; 0 means DefaultWaitTimeout
	WaitTimeout time.Duration `json:"wait_timeout"`

	// Security settings
	EnableTLS             bool   `json:"enable_tls"`
	TLSInsecureSkipVerify bool   `json:"tls_insecure_skip_verify"`
	SASLMechanism         string `json:"sasl_mechanism"`
	SASLUsername          string `json:"sasl_username"`
	SASLPassword          string `json:"sasl_password"`
}

func init() {
	if err := source.Register("kafka", open); err != nil {
		logger.Warn("kafka scheme not registered", zap.Error(err))
	}
}

// ParseURI reads a kafka:// URI into a Config. The offset parameter is
// oldest (the default), newest or a number.
func ParseURI(uri string) (Config, error) {
	bad := func(msg string) (Config, error) {
		return Config{}, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			fmt.Sprintf("invalid kafka URI %q: %s", uri, msg)).WithDetail("identifier", uri)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return bad(err.Error())
	}
	if u.Scheme != "kafka" {
		return bad("scheme must be kafka")
	}
	cfg := Config{Offset: sarama.OffsetOldest, ClientID: "textreader"}
	for _, b := range strings.Split(u.Host, ",") {
		if b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	cfg.Topic = strings.Trim(u.Path, "/")
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || strings.Contains(cfg.Topic, "/") {
		return bad("want kafka://brokers/topic")
	}

	q := u.Query()
	if p := q.Get("partition"); p != "" {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil || n < 0 {
			return bad("partition must be a non-negative integer")
		}
		cfg.Partition = int32(n)
	}
	switch o := q.Get("offset"); o {
	case "", "oldest":
	case "newest":
		cfg.Offset = sarama.OffsetNewest
	default:
		n, err := strconv.ParseInt(o, 10, 64)
		if err != nil || n < 0 {
			return bad("offset must be oldest, newest or a non-negative integer")
		}
		cfg.Offset = n
	}
	if t := q.Get("timeout"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return bad("timeout: " + err.Error())
		}
		cfg.WaitTimeout = d
	}
	return cfg, nil
}

func open(ctx context.Context, uri string, _ source.Options) (source.Source, error) {
	cfg, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return NewProducer(ctx, cfg)
}

func (c Config) saramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = c.ClientID
	config.Consumer.Return.Errors = true

	if c.EnableTLS {
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: c.TLSInsecureSkipVerify, //nolint:gosec // opt-in
		}
	}
	if c.SASLMechanism != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.User = c.SASLUsername
		config.Net.SASL.Password = c.SASLPassword

		switch c.SASLMechanism {
		case "PLAIN":
			config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		case "SCRAM-SHA-256":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case "SCRAM-SHA-512":
			config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		}
	}
	return config
}

// NewProducer opens the partition and returns a forward-only source over
// its messages from cfg.Offset up to the current high-water mark. ctx
// bounds every later read as well as the open.
func NewProducer(ctx context.Context, cfg Config) (source.Source, error) {
	id := fmt.Sprintf("kafka://%s/%s/%d", strings.Join(cfg.Brokers, ","), cfg.Topic, cfg.Partition)

	client, err := sarama.NewClient(cfg.Brokers, cfg.saramaConfig())
	if err != nil {
		return nil, failed(id, "connect", err)
	}
	end, err := client.GetOffset(cfg.Topic, cfg.Partition, sarama.OffsetNewest)
	if err != nil {
		client.Close()
		return nil, failed(id, "high-water mark", err)
	}
	start := cfg.Offset
	switch start {
	case sarama.OffsetNewest:
		start = end
	case sarama.OffsetOldest:
		if start, err = client.GetOffset(cfg.Topic, cfg.Partition, sarama.OffsetOldest); err != nil {
			client.Close()
			return nil, failed(id, "oldest offset", err)
		}
	}
	logger.Debug("kafka partition opened",
		zap.String("topic", cfg.Topic),
		zap.Int32("partition", cfg.Partition),
		zap.Int64("start", start),
		zap.Int64("end", end),
	)
	if start >= end {
		return source.FromProducer(id, func() (string, error) { return "", source.ErrEndOfInput }, client.Close), nil
	}

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		client.Close()
		return nil, failed(id, "consumer", err)
	}
	pc, err := consumer.ConsumePartition(cfg.Topic, cfg.Partition, start)
	if err != nil {
		consumer.Close()
		client.Close()
		return nil, failed(id, "consume partition", err)
	}

	wait := cfg.WaitTimeout
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	return newSource(ctx, id, pc, start, end, wait, func() error {
		perr := pc.Close()
		cerr := consumer.Close()
		if err := client.Close(); err != nil {
			return err
		}
		if perr != nil {
			return perr
		}
		return cerr
	}), nil
}

// newSource serves the values of pc from start up to, but not including, end
func newSource(ctx context.Context, id string, pc sarama.PartitionConsumer, start, end int64, wait time.Duration, closer func() error) source.Source {
	next := start
	timer := time.NewTimer(wait)
	timer.Stop()

	return source.FromProducer(id, func() (string, error) {
		if next >= end {
			return "", source.ErrEndOfInput
		}
		timer.Reset(wait)
		defer timer.Stop()

		select {
		case msg, ok := <-pc.Messages():
			if !ok {
				return "", failed(id, "read", fmt.Errorf("partition consumer closed at offset %d", next))
			}
			next = msg.Offset + 1
			return string(msg.Value), nil
		case cerr, ok := <-pc.Errors():
			if !ok {
				return "", failed(id, "read", fmt.Errorf("partition consumer closed at offset %d", next))
			}
			return "", failed(id, "read", cerr)
		case <-ctx.Done():
			return "", errors.Wrap(ctx.Err(), errors.ErrorTypeSource, id+": read cancelled").
				WithDetail("identifier", id)
		case <-timer.C:
			return "", failed(id, "read", fmt.Errorf("no message at offset %d after %s", next, wait))
		}
	}, closer)
}

func failed(id, op string, err error) error {
	return errors.Wrap(errors.ErrRead, errors.ErrorTypeSource, fmt.Sprintf("%s: %s: %v", id, op, err)).
		WithDetail("identifier", id).
		WithDetail("cause", err.Error())
}
