package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
	"pointdeck/contexts/estimation/estimation-service/ports"

	"pointdeck/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var activeStatuses = []string{
	string(entities.StoryStatusVoting),
	string(entities.StoryStatusRevealed),
}

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

// Migrate creates or updates the estimation tables.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&storyModel{},
		&voteModel{},
		&unlockRequestModel{},
		&storyCommentModel{},
		&outboxModel{},
		&participantProjectionModel{},
	)
}

func (r *Repository) CreateStory(ctx context.Context, story entities.Story) error {
	row := storyModelFromEntity(story)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("estimation_repo_create_story_failed", create.Error,
			"story_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) GetStory(ctx context.Context, storyID string) (entities.Story, error) {
	var row storyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(storyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Story{}, domainerrors.ErrStoryNotFound
		}
		return entities.Story{}, r.logError("estimation_repo_get_story_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetActiveStory(ctx context.Context) (entities.Story, bool, error) {
	var row storyModel
	err := r.db.WithContext(ctx).
		Where("status IN ?", activeStatuses).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Story{}, false, nil
		}
		return entities.Story{}, false, r.logError("estimation_repo_get_active_story_failed", err)
	}
	return row.toEntity(), true, nil
}

// StartVotingExclusive claims the singleton active slot with one
// conditional UPDATE. The NOT EXISTS guard and the status predicate make
// concurrent claims serialize in the database, not in process memory.
// Unlock requests filed while the story was still pending are discarded
// with the transition so round 1 starts with a clean quorum.
func (r *Repository) StartVotingExclusive(ctx context.Context, storyID string, at time.Time) (entities.Story, bool, error) {
	storyID = strings.TrimSpace(storyID)
	var transitioned bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&storyModel{}).
			Where("id = ?", storyID).
			Where("status = ?", string(entities.StoryStatusPending)).
			Where("NOT EXISTS (SELECT 1 FROM stories AS active WHERE active.status IN ?)", activeStatuses).
			Updates(map[string]any{
				"status":     string(entities.StoryStatusVoting),
				"round":      1,
				"unlocked":   false,
				"updated_at": at.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		transitioned = result.RowsAffected > 0
		if !transitioned {
			return nil
		}
		return tx.Where("story_id = ?", storyID).Delete(&unlockRequestModel{}).Error
	})
	if err != nil {
		return entities.Story{}, false, r.logError("estimation_repo_start_voting_failed", err,
			"story_id", storyID,
		)
	}

	story, err := r.GetStory(ctx, storyID)
	if err != nil {
		return entities.Story{}, false, err
	}
	return story, transitioned, nil
}

func (r *Repository) MarkRevealed(ctx context.Context, storyID string, at time.Time) (entities.Story, bool, error) {
	storyID = strings.TrimSpace(storyID)
	result := r.db.WithContext(ctx).
		Model(&storyModel{}).
		Where("id = ?", storyID).
		Where("status = ?", string(entities.StoryStatusVoting)).
		Updates(map[string]any{
			"status":     string(entities.StoryStatusRevealed),
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return entities.Story{}, false, r.logError("estimation_repo_mark_revealed_failed", result.Error,
			"story_id", storyID,
		)
	}

	story, err := r.GetStory(ctx, storyID)
	if err != nil {
		return entities.Story{}, false, err
	}
	return story, result.RowsAffected > 0, nil
}

func (r *Repository) CompleteStory(ctx context.Context, storyID string, finalValue int, at time.Time) (entities.Story, bool, error) {
	storyID = strings.TrimSpace(storyID)
	var transitioned bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&storyModel{}).
			Where("id = ?", storyID).
			Where("status = ?", string(entities.StoryStatusRevealed)).
			Updates(map[string]any{
				"status":      string(entities.StoryStatusCompleted),
				"final_value": finalValue,
				"unlocked":    false,
				"updated_at":  at.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		transitioned = result.RowsAffected > 0
		if !transitioned {
			return nil
		}
		return tx.Where("story_id = ?", storyID).Delete(&unlockRequestModel{}).Error
	})
	if err != nil {
		return entities.Story{}, false, r.logError("estimation_repo_complete_story_failed", err,
			"story_id", storyID,
		)
	}

	story, err := r.GetStory(ctx, storyID)
	if err != nil {
		return entities.Story{}, false, err
	}
	return story, transitioned, nil
}

func (r *Repository) StartNextRound(ctx context.Context, storyID string, at time.Time) (entities.Story, bool, error) {
	storyID = strings.TrimSpace(storyID)
	var transitioned bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&storyModel{}).
			Where("id = ?", storyID).
			Where("status = ?", string(entities.StoryStatusRevealed)).
			Updates(map[string]any{
				"status":     string(entities.StoryStatusVoting),
				"round":      gorm.Expr("round + 1"),
				"unlocked":   false,
				"updated_at": at.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		transitioned = result.RowsAffected > 0
		if !transitioned {
			return nil
		}
		return tx.Where("story_id = ?", storyID).Delete(&unlockRequestModel{}).Error
	})
	if err != nil {
		return entities.Story{}, false, r.logError("estimation_repo_start_next_round_failed", err,
			"story_id", storyID,
		)
	}

	story, err := r.GetStory(ctx, storyID)
	if err != nil {
		return entities.Story{}, false, err
	}
	return story, transitioned, nil
}

func (r *Repository) ListPendingStories(ctx context.Context) ([]entities.Story, error) {
	var rows []storyModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.StoryStatusPending)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("estimation_repo_list_pending_failed", err)
	}
	return toStoryEntities(rows), nil
}

func (r *Repository) NextAutoStartStory(ctx context.Context) (entities.Story, bool, error) {
	var row storyModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.StoryStatusPending)).
		Where("auto_start").
		Order("created_at ASC, id ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Story{}, false, nil
		}
		return entities.Story{}, false, r.logError("estimation_repo_next_auto_start_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListCompletedStories(ctx context.Context, limit int) ([]entities.Story, error) {
	tx := r.db.WithContext(ctx).
		Where("status = ?", string(entities.StoryStatusCompleted)).
		Order("updated_at DESC, id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []storyModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, r.logError("estimation_repo_list_completed_failed", err, "limit", limit)
	}
	return toStoryEntities(rows), nil
}

// CastVote upserts inside one transaction that locks the story row, so the
// status check and the write cannot straddle a reveal.
func (r *Repository) CastVote(ctx context.Context, vote entities.Vote) (entities.Vote, error) {
	row := voteModelFromEntity(vote)
	var final voteModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var story storyModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", row.StoryID).
			First(&story).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrStoryNotFound
			}
			return err
		}
		if story.Status != string(entities.StoryStatusVoting) || story.Round != row.Round {
			return domainerrors.ErrVotingNotOpen
		}

		create := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "story_id"},
				{Name: "participant_id"},
				{Name: "round"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      row.Value,
				"updated_at": row.UpdatedAt,
			}),
		}).Create(&row)
		if create.Error != nil {
			return create.Error
		}

		return tx.
			Where("story_id = ?", row.StoryID).
			Where("participant_id = ?", row.ParticipantID).
			Where("round = ?", row.Round).
			First(&final).
			Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrStoryNotFound) || errors.Is(err, domainerrors.ErrVotingNotOpen) {
			return entities.Vote{}, err
		}
		return entities.Vote{}, r.logError("estimation_repo_cast_vote_failed", err,
			"story_id", row.StoryID,
			"participant_id", row.ParticipantID,
			"round", row.Round,
		)
	}
	return final.toEntity(), nil
}

func (r *Repository) ListVotes(ctx context.Context, storyID string, round int) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Where("round = ?", round).
		Order("participant_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("estimation_repo_list_votes_failed", err,
			"story_id", strings.TrimSpace(storyID),
			"round", round,
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListVoterIDs(ctx context.Context, storyID string, round int) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Where("round = ?", round).
		Order("participant_id ASC").
		Pluck("participant_id", &ids).Error; err != nil {
		return nil, r.logError("estimation_repo_list_voter_ids_failed", err,
			"story_id", strings.TrimSpace(storyID),
			"round", round,
		)
	}
	return ids, nil
}

func (r *Repository) ListAllVotes(ctx context.Context, storyID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Order("round ASC, participant_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("estimation_repo_list_all_votes_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) AddUnlockRequest(ctx context.Context, request entities.UnlockRequest) (bool, error) {
	row := unlockRequestModel{
		StoryID:       strings.TrimSpace(request.StoryID),
		ParticipantID: strings.TrimSpace(request.ParticipantID),
		RequestedAt:   request.RequestedAt.UTC(),
	}
	if row.RequestedAt.IsZero() {
		row.RequestedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "story_id"},
			{Name: "participant_id"},
		},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("estimation_repo_add_unlock_request_failed", create.Error,
			"story_id", row.StoryID,
			"participant_id", row.ParticipantID,
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) CountUnlockRequests(ctx context.Context, storyID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&unlockRequestModel{}).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("estimation_repo_count_unlock_requests_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	return int(count), nil
}

func (r *Repository) MarkUnlocked(ctx context.Context, storyID string, at time.Time) (entities.Story, error) {
	storyID = strings.TrimSpace(storyID)
	result := r.db.WithContext(ctx).
		Model(&storyModel{}).
		Where("id = ?", storyID).
		Where("NOT unlocked").
		Updates(map[string]any{
			"unlocked":   true,
			"updated_at": at.UTC(),
		})
	if result.Error != nil {
		return entities.Story{}, r.logError("estimation_repo_mark_unlocked_failed", result.Error,
			"story_id", storyID,
		)
	}
	return r.GetStory(ctx, storyID)
}

// UpsertParticipant applies a roster event to the projection the
// estimation side owns.
func (r *Repository) UpsertParticipant(ctx context.Context, participant ports.ParticipantRef) error {
	row := participantProjectionModel{
		ParticipantID: strings.TrimSpace(participant.ParticipantID),
		DisplayName:   strings.TrimSpace(participant.DisplayName),
		Spectator:     participant.Spectator,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "participant_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"display_name": row.DisplayName,
			"spectator":    row.Spectator,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("estimation_repo_upsert_participant_failed", create.Error,
			"participant_id", row.ParticipantID,
		)
	}
	return nil
}

// RemoveParticipant drops a departed participant from the projection.
func (r *Repository) RemoveParticipant(ctx context.Context, participantID string) error {
	result := r.db.WithContext(ctx).
		Where("participant_id = ?", strings.TrimSpace(participantID)).
		Delete(&participantProjectionModel{})
	if result.Error != nil {
		return r.logError("estimation_repo_remove_participant_failed", result.Error,
			"participant_id", strings.TrimSpace(participantID),
		)
	}
	return nil
}

func (r *Repository) GetParticipant(ctx context.Context, participantID string) (ports.ParticipantRef, error) {
	var row participantProjectionModel
	err := r.db.WithContext(ctx).
		Where("participant_id = ?", strings.TrimSpace(participantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ParticipantRef{}, domainerrors.ErrParticipantNotFound
		}
		return ports.ParticipantRef{}, r.logError("estimation_repo_get_participant_failed", err,
			"participant_id", strings.TrimSpace(participantID),
		)
	}
	return row.toRef(), nil
}

func (r *Repository) CountActiveParticipants(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&participantProjectionModel{}).
		Where("NOT spectator").
		Count(&count).Error; err != nil {
		return 0, r.logError("estimation_repo_count_active_participants_failed", err)
	}
	return int(count), nil
}

func (r *Repository) ListActiveParticipantIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&participantProjectionModel{}).
		Where("NOT spectator").
		Order("participant_id ASC").
		Pluck("participant_id", &ids).Error; err != nil {
		return nil, r.logError("estimation_repo_list_active_participants_failed", err)
	}
	return ids, nil
}

func (r *Repository) AddComment(ctx context.Context, comment entities.StoryComment) error {
	row := storyCommentModelFromEntity(comment)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("estimation_repo_add_comment_failed", create.Error,
			"story_id", row.StoryID,
			"comment_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) ListComments(ctx context.Context, storyID string) ([]entities.StoryComment, error) {
	var rows []storyCommentModel
	if err := r.db.WithContext(ctx).
		Where("story_id = ?", strings.TrimSpace(storyID)).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("estimation_repo_list_comments_failed", err,
			"story_id", strings.TrimSpace(storyID),
		)
	}
	comments := make([]entities.StoryComment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.toEntity())
	}
	return comments, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("estimation_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("estimation_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("estimation_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	return toOutboxMessages(rows), nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("estimation_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListRecentOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	tx := r.db.WithContext(ctx).Order("seq DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var rows []outboxModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, r.logError("estimation_repo_list_recent_outbox_failed", err, "limit", limit)
	}
	// Query newest-first for the LIMIT, serve oldest-first.
	messages := toOutboxMessages(rows)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "estimation/estimation-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("estimation repository operation failed", fields...)
	return err
}

type storyModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	OwnerID     string    `gorm:"column:owner_id"`
	Status      string    `gorm:"column:status;index"`
	Round       int       `gorm:"column:round"`
	Unlocked    bool      `gorm:"column:unlocked"`
	FinalValue  *int      `gorm:"column:final_value"`
	AutoStart   bool      `gorm:"column:auto_start"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (storyModel) TableName() string {
	return "stories"
}

func storyModelFromEntity(story entities.Story) storyModel {
	row := storyModel{
		ID:          strings.TrimSpace(story.StoryID),
		Title:       strings.TrimSpace(story.Title),
		Description: strings.TrimSpace(story.Description),
		OwnerID:     strings.TrimSpace(story.OwnerID),
		Status:      string(story.Status),
		Round:       story.Round,
		Unlocked:    story.Unlocked,
		FinalValue:  story.FinalValue,
		AutoStart:   story.AutoStart,
		CreatedAt:   story.CreatedAt.UTC(),
		UpdatedAt:   story.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m storyModel) toEntity() entities.Story {
	return entities.Story{
		StoryID:     m.ID,
		Title:       m.Title,
		Description: m.Description,
		OwnerID:     m.OwnerID,
		Status:      entities.StoryStatus(m.Status),
		Round:       m.Round,
		Unlocked:    m.Unlocked,
		FinalValue:  m.FinalValue,
		AutoStart:   m.AutoStart,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	ID            string    `gorm:"column:id"`
	StoryID       string    `gorm:"column:story_id;primaryKey"`
	ParticipantID string    `gorm:"column:participant_id;primaryKey"`
	Round         int       `gorm:"column:round;primaryKey"`
	Value         int       `gorm:"column:value"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:            strings.TrimSpace(vote.VoteID),
		StoryID:       strings.TrimSpace(vote.StoryID),
		ParticipantID: strings.TrimSpace(vote.ParticipantID),
		Round:         vote.Round,
		Value:         vote.Value,
		CreatedAt:     vote.CreatedAt.UTC(),
		UpdatedAt:     vote.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:        m.ID,
		StoryID:       m.StoryID,
		ParticipantID: m.ParticipantID,
		Round:         m.Round,
		Value:         m.Value,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type unlockRequestModel struct {
	StoryID       string    `gorm:"column:story_id;primaryKey"`
	ParticipantID string    `gorm:"column:participant_id;primaryKey"`
	RequestedAt   time.Time `gorm:"column:requested_at"`
}

func (unlockRequestModel) TableName() string {
	return "unlock_requests"
}

type storyCommentModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	StoryID   string    `gorm:"column:story_id;index:idx_story_comments_story_created"`
	AuthorID  string    `gorm:"column:author_id"`
	Text      string    `gorm:"column:comment_text"`
	Type      string    `gorm:"column:comment_type"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_story_comments_story_created,sort:desc"`
}

func (storyCommentModel) TableName() string {
	return "story_comments"
}

func storyCommentModelFromEntity(comment entities.StoryComment) storyCommentModel {
	row := storyCommentModel{
		ID:        strings.TrimSpace(comment.CommentID),
		StoryID:   strings.TrimSpace(comment.StoryID),
		AuthorID:  strings.TrimSpace(comment.AuthorID),
		Text:      strings.TrimSpace(comment.Text),
		Type:      string(comment.Type),
		CreatedAt: comment.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m storyCommentModel) toEntity() entities.StoryComment {
	return entities.StoryComment{
		CommentID: m.ID,
		StoryID:   m.StoryID,
		AuthorID:  m.AuthorID,
		Text:      m.Text,
		Type:      entities.CommentType(m.Type),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	Seq          int64      `gorm:"column:seq;primaryKey;autoIncrement"`
	OutboxID     string     `gorm:"column:outbox_id;uniqueIndex"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "estimation_outbox"
}

// participantProjectionModel is the estimation-owned copy of the roster.
// Rows are written by roster events only, never joined against the
// participant service's own tables.
type participantProjectionModel struct {
	ParticipantID string `gorm:"column:participant_id;primaryKey"`
	DisplayName   string `gorm:"column:display_name"`
	Spectator     bool   `gorm:"column:spectator"`
}

func (participantProjectionModel) TableName() string {
	return "estimation_participants"
}

func (m participantProjectionModel) toRef() ports.ParticipantRef {
	return ports.ParticipantRef{
		ParticipantID: m.ParticipantID,
		DisplayName:   m.DisplayName,
		Spectator:     m.Spectator,
	}
}

func toStoryEntities(rows []storyModel) []entities.Story {
	items := make([]entities.Story, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func toOutboxMessages(rows []outboxModel) []ports.OutboxMessage {
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			Seq:          row.Seq,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.StoryRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.UnlockRepository = (*Repository)(nil)
var _ ports.CommentRepository = (*Repository)(nil)
var _ ports.ParticipantDirectory = (*Repository)(nil)
var _ ports.ParticipantProjectionWriter = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
