package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pointdeck/contexts/participants/participant-service/domain/entities"
	domainerrors "pointdeck/contexts/participants/participant-service/domain/errors"
	"pointdeck/contexts/participants/participant-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository persists the roster. It owns the participants table that the
// estimation context reads as a projection.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var _ ports.ParticipantRepository = (*Repository)(nil)

// Migrate creates or updates the participants table.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&participantModel{})
}

func (r *Repository) CreateParticipant(ctx context.Context, participant entities.Participant) error {
	row := participantModelFromEntity(participant)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("participants_repo_create_failed", create.Error,
			"participant_id", row.ParticipantID,
		)
	}
	return nil
}

func (r *Repository) GetParticipant(ctx context.Context, participantID string) (entities.Participant, error) {
	var row participantModel
	err := r.db.WithContext(ctx).
		Where("participant_id = ?", strings.TrimSpace(participantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participant{}, domainerrors.ErrParticipantNotFound
		}
		return entities.Participant{}, r.logError("participants_repo_get_failed", err,
			"participant_id", strings.TrimSpace(participantID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) FindByName(ctx context.Context, displayName string) (entities.Participant, bool, error) {
	var row participantModel
	err := r.db.WithContext(ctx).
		Where("LOWER(display_name) = LOWER(?)", strings.TrimSpace(displayName)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Participant{}, false, nil
		}
		return entities.Participant{}, false, r.logError("participants_repo_find_by_name_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListParticipants(ctx context.Context, activeOnly bool) ([]entities.Participant, error) {
	tx := r.db.WithContext(ctx).Model(&participantModel{})
	if activeOnly {
		tx = tx.Where("active")
	}
	var rows []participantModel
	if err := tx.Order("joined_at ASC, participant_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("participants_repo_list_failed", err, "active_only", activeOnly)
	}
	items := make([]entities.Participant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SetSpectator(ctx context.Context, participantID string, spectator bool, at time.Time) (entities.Participant, error) {
	return r.updateParticipant(ctx, participantID, map[string]any{
		"spectator":    spectator,
		"last_seen_at": at.UTC(),
	})
}

func (r *Repository) SetActive(ctx context.Context, participantID string, active bool, at time.Time) (entities.Participant, error) {
	return r.updateParticipant(ctx, participantID, map[string]any{
		"active":       active,
		"last_seen_at": at.UTC(),
	})
}

func (r *Repository) TouchPresence(ctx context.Context, participantID string, at time.Time) error {
	_, err := r.updateParticipant(ctx, participantID, map[string]any{
		"last_seen_at": at.UTC(),
	})
	return err
}

func (r *Repository) updateParticipant(ctx context.Context, participantID string, updates map[string]any) (entities.Participant, error) {
	participantID = strings.TrimSpace(participantID)
	result := r.db.WithContext(ctx).
		Model(&participantModel{}).
		Where("participant_id = ?", participantID).
		Updates(updates)
	if result.Error != nil {
		return entities.Participant{}, r.logError("participants_repo_update_failed", result.Error,
			"participant_id", participantID,
		)
	}
	if result.RowsAffected == 0 {
		return entities.Participant{}, domainerrors.ErrParticipantNotFound
	}
	return r.GetParticipant(ctx, participantID)
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "participants/participant-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("participant repository operation failed", fields...)
	return err
}

type participantModel struct {
	ParticipantID string    `gorm:"column:participant_id;primaryKey"`
	DisplayName   string    `gorm:"column:display_name;uniqueIndex"`
	Spectator     bool      `gorm:"column:spectator"`
	Active        bool      `gorm:"column:active"`
	JoinedAt      time.Time `gorm:"column:joined_at"`
	LastSeenAt    time.Time `gorm:"column:last_seen_at"`
}

func (participantModel) TableName() string {
	return "participants"
}

func participantModelFromEntity(participant entities.Participant) participantModel {
	row := participantModel{
		ParticipantID: strings.TrimSpace(participant.ParticipantID),
		DisplayName:   strings.TrimSpace(participant.DisplayName),
		Spectator:     participant.Spectator,
		Active:        participant.Active,
		JoinedAt:      participant.JoinedAt.UTC(),
		LastSeenAt:    participant.LastSeenAt.UTC(),
	}
	if row.JoinedAt.IsZero() {
		row.JoinedAt = time.Now().UTC()
	}
	if row.LastSeenAt.IsZero() {
		row.LastSeenAt = row.JoinedAt
	}
	return row
}

func (m participantModel) toEntity() entities.Participant {
	return entities.Participant{
		ParticipantID: m.ParticipantID,
		DisplayName:   m.DisplayName,
		Spectator:     m.Spectator,
		Active:        m.Active,
		JoinedAt:      m.JoinedAt.UTC(),
		LastSeenAt:    m.LastSeenAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
