package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
	"github.com/kapu/channelwatch-go/pkg/errors"
)

// SnapshotRepository stores channel snapshots as JSON rows and exposes the
// latest/previous pair the delta calculator needs.
type SnapshotRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSnapshotRepository(ps *PostgresService, logger *zap.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: ps.GetDB(), logger: logger}
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.NewStorageError("failed to encode snapshot", "channel_snapshots", "save", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO channel_snapshots (channel_id, fetched_at, payload) VALUES ($1, $2, $3)`,
		snapshot.ChannelID, snapshot.FetchedAt, payload)
	if err != nil {
		return errors.NewStorageError("failed to insert snapshot", "channel_snapshots", "save", err)
	}

	r.logger.Debug("Snapshot saved",
		zap.String("channel", snapshot.ChannelID),
		zap.Time("fetched_at", snapshot.FetchedAt))
	return nil
}

// GetLatest returns the most recent snapshot for a channel, or nil when the
// channel has never been captured.
func (r *SnapshotRepository) GetLatest(ctx context.Context, channelID string) (*domain.Snapshot, error) {
	return r.getNth(ctx, channelID, 0)
}

// GetPrevious returns the snapshot before the latest one, or nil.
func (r *SnapshotRepository) GetPrevious(ctx context.Context, channelID string) (*domain.Snapshot, error) {
	return r.getNth(ctx, channelID, 1)
}

func (r *SnapshotRepository) getNth(ctx context.Context, channelID string, offset int) (*domain.Snapshot, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM channel_snapshots
		 WHERE channel_id = $1
		 ORDER BY fetched_at DESC
		 OFFSET $2 LIMIT 1`,
		channelID, offset).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError("failed to query snapshot", "channel_snapshots", "get", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, errors.NewStorageError("failed to decode snapshot", "channel_snapshots", "get", err)
	}
	return &snapshot, nil
}

// HistoryRepository reads and appends metric time-series points. It backs
// the orchestrator's history provider.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewHistoryRepository(ps *PostgresService, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{db: ps.GetDB(), logger: logger}
}

func (r *HistoryRepository) GetMetricHistory(ctx context.Context, metric, entityID string, start time.Time, limit int) ([]domain.TimePoint, error) {
	query := `SELECT recorded_at, value FROM metric_history
		 WHERE entity_id = $1 AND metric = $2 AND recorded_at >= $3
		 ORDER BY recorded_at`
	args := []any{entityID, metric, start}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("failed to query history", "metric_history", "get", err)
	}
	defer rows.Close()

	var points []domain.TimePoint
	for rows.Next() {
		var point domain.TimePoint
		if err := rows.Scan(&point.Timestamp, &point.Value); err != nil {
			return nil, errors.NewStorageError("failed to scan history row", "metric_history", "get", err)
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read history rows", "metric_history", "get", err)
	}
	return points, nil
}

// AppendSnapshotMetrics records the channel-level scalar metrics of a
// snapshot so trend analysis has a series to work from.
func (r *HistoryRepository) AppendSnapshotMetrics(ctx context.Context, snapshot *domain.Snapshot) error {
	metrics := map[string]float64{
		"subscribers":  float64(snapshot.SubscriberCount),
		"views":        float64(snapshot.ViewCount),
		"total_videos": float64(snapshot.VideoCount),
	}

	for metric, value := range metrics {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO metric_history (entity_id, entity_type, metric, value, recorded_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			snapshot.ChannelID, string(domain.EntityChannel), metric, value, snapshot.FetchedAt)
		if err != nil {
			return errors.NewStorageError("failed to append metric", "metric_history", "append", err)
		}
	}

	r.logger.Debug("Snapshot metrics appended",
		zap.String("channel", snapshot.ChannelID),
		zap.Int("metrics", len(metrics)))
	return nil
}
