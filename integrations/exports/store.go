package exports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"escrowchain/core/events"
	"escrowchain/core/types"
	"escrowchain/observability"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// EventRecord is the persisted form of a committed program event.
type EventRecord struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Type       string    `gorm:"size:64;index" json:"type"`
	Program    string    `gorm:"size:128;index" json:"program"`
	Attributes string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// TableName pins the table used for event records.
func (EventRecord) TableName() string { return "escrow_events" }

// Event decodes the stored attributes back into the shared payload.
func (r EventRecord) Event() (*types.Event, error) {
	attrs := map[string]string{}
	if strings.TrimSpace(r.Attributes) != "" {
		if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("exports: decode event %d: %w", r.ID, err)
		}
	}
	return &types.Event{Type: r.Type, Attributes: attrs}, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type    string
	Program string
	AfterID uint64
	Limit   int
}

// Store persists committed events through gorm. It implements
// events.Emitter so it can be installed directly as a node sink.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open connects to the DSN and migrates the schema. postgres:// and
// postgresql:// URLs use the postgres driver; anything else is treated as a
// sqlite file path.
func Open(dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("exports: dsn required")
	}
	var dialector gorm.Dialector
	if isPostgres(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("exports: open: %w", err)
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("exports: migrate: %w", err)
	}
	return &Store{db: db, logger: slog.Default(), now: func() time.Time { return time.Now().UTC() }}, nil
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// SetLogger overrides the logger used to report sink failures.
func (s *Store) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	s.logger = l
}

// Emit stores evt. Failures are logged and counted but never surfaced to
// the operation that produced the event.
func (s *Store) Emit(evt events.Event) {
	if s == nil || evt == nil {
		return
	}
	payload, ok := evt.(events.Payload)
	if !ok {
		return
	}
	if err := s.Append(context.Background(), payload.Event()); err != nil {
		s.logger.Warn("event sink write failed",
			slog.String("type", evt.EventType()),
			slog.Any("error", err))
		observability.Events().RecordSinkFailure(evt.EventType())
		sinkMetrics().recordFailure(evt.EventType())
	}
}

// Append inserts one event.
func (s *Store) Append(ctx context.Context, evt *types.Event) error {
	if evt == nil {
		return errors.New("exports: event required")
	}
	encoded, err := json.Marshal(evt.Attributes)
	if err != nil {
		return fmt.Errorf("exports: encode attributes: %w", err)
	}
	record := EventRecord{
		Type:       evt.Type,
		Program:    programOf(evt),
		Attributes: string(encoded),
		CreatedAt:  s.now(),
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func programOf(evt *types.Event) string {
	if v := evt.Attributes["program"]; v != "" {
		return v
	}
	return evt.Attributes["registry"]
}

// List returns stored events in insertion order.
func (s *Store) List(ctx context.Context, filter Filter) ([]EventRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	query := s.db.WithContext(ctx).Model(&EventRecord{}).Where("id > ?", filter.AfterID)
	if t := strings.TrimSpace(filter.Type); t != "" {
		query = query.Where("type = ?", t)
	}
	if p := strings.TrimSpace(filter.Program); p != "" {
		query = query.Where("program = ?", p)
	}
	var records []EventRecord
	if err := query.Order("id asc").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("exports: list: %w", err)
	}
	return records, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var (
	sinkMetricsOnce sync.Once
	sharedSink      *storeMetrics
)

type storeMetrics struct {
	failures metric.Int64Counter
}

func sinkMetrics() *storeMetrics {
	sinkMetricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("escrowchain/exports")
		counter, err := meter.Int64Counter("escrow.events.sink_failures")
		if err != nil {
			fallback := noop.NewMeterProvider().Meter("escrowchain/exports")
			counter, _ = fallback.Int64Counter("escrow.events.sink_failures")
		}
		sharedSink = &storeMetrics{failures: counter}
	})
	return sharedSink
}

func (m *storeMetrics) recordFailure(eventType string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", eventType)))
}
