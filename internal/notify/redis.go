package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nao1215/plantdoc/internal/model"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "plantdoc:diagnoses"

// EventDiagnosisComplete is the type of every published event.
const EventDiagnosisComplete = "diagnosis.complete"

var (
	// ErrNoAddress is returned when no redis address is configured.
	ErrNoAddress = errors.New("redis address is required")

	// ErrUnavailable is returned when the redis server cannot be reached.
	ErrUnavailable = errors.New("redis server unavailable")
)

// Options configures a RedisPublisher.
type Options struct {
	// Addr is host:port of the redis server.
	Addr string

	// Password is optional.
	Password string

	// DB selects the logical database.
	DB int

	// Channel defaults to DefaultChannel.
	Channel string

	// DialTimeout bounds connecting. Zero uses the go-redis default.
	DialTimeout time.Duration
}

// Event is the JSON payload published for each settled diagnosis.
type Event struct {
	Type   string                 `json:"type"`
	At     time.Time              `json:"at"`
	Record model.DiagnosticRecord `json:"record"`
	Image  *model.ImageRef        `json:"image,omitempty"`
	Demo   bool                   `json:"demo"`
}

// RedisPublisher publishes diagnosis events on a redis pub/sub channel.
// It implements session.Notifier.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

// NewRedisPublisher connects to redis and verifies the connection with a
// PING before returning.
func NewRedisPublisher(ctx context.Context, opts Options) (*RedisPublisher, error) {
	if opts.Addr == "" {
		return nil, ErrNoAddress
	}
	channel := opts.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, opts.Addr, err)
	}

	return &RedisPublisher{rdb: rdb, channel: channel, now: time.Now}, nil
}

// Channel returns the channel events are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// DiagnosisComplete publishes rec. img is nil for demo records.
func (p *RedisPublisher) DiagnosisComplete(ctx context.Context, rec model.DiagnosticRecord, img *model.ImageRef) error {
	payload, err := encodeEvent(newEvent(rec, img, p.now()))
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}
	return nil
}

// Close closes the redis connection pool.
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

func newEvent(rec model.DiagnosticRecord, img *model.ImageRef, at time.Time) Event {
	return Event{
		Type:   EventDiagnosisComplete,
		At:     at.UTC(),
		Record: rec,
		Image:  img,
		Demo:   img == nil,
	}
}

func encodeEvent(ev Event) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("failed to encode event: %w", err)
	}
	return string(data), nil
}
