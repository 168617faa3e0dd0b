package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/kweriko/medverify-backend/pkg/errors"
)

const reviewQueueTable = "review_queue"

// ReviewAdapter implements ReviewRepository in Postgres. A serial position
// column preserves insertion order; overwriting an extraction keeps its
// original position.
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review queue adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Put inserts a scored extraction, overwriting any existing entry with the
// same extraction ID while keeping its queue position.
func (a *ReviewAdapter) Put(ctx context.Context, score *entities.ConfidenceScore) error {
	record, err := scoreToRecord(score)
	if err != nil {
		return err
	}

	query, args, err := a.db.Insert(reviewQueueTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("extraction_id", record)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to store review entry", err)
	}
	return nil
}

// Get retrieves a review entry by extraction ID
func (a *ReviewAdapter) Get(ctx context.Context, extractionID string) (*entities.ConfidenceScore, error) {
	query, args, err := a.db.From(reviewQueueTable).
		Select(reviewColumns()...).
		Where(goqu.C("extraction_id").Eq(extractionID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build review select query", err)
	}

	score, err := scanScore(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("extraction %s not found in review queue", extractionID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get review entry", err)
	}
	return score, nil
}

// Decide marks a PENDING entry approved or rejected. The pending guard in
// the WHERE clause makes the transition atomic: of two racing decisions only
// one matches a pending row, the other sees zero rows and fails.
func (a *ReviewAdapter) Decide(ctx context.Context, extractionID string, status entities.ReviewStatus, notes string) (*entities.ConfidenceScore, error) {
	query, args, err := a.db.Update(reviewQueueTable).
		Set(goqu.Record{
			"review_status": string(status),
			"review_notes":  notes,
		}).
		Where(goqu.Ex{
			"extraction_id": extractionID,
			"review_status": string(entities.ReviewStatusPending),
		}).
		Returning(reviewColumns()...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build review decide query", err)
	}

	score, err := scanScore(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		// No pending row matched: either the entry does not exist or it has
		// already been decided.
		if _, getErr := a.Get(ctx, extractionID); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewInvalidTransitionError(fmt.Sprintf("extraction %s has already been reviewed", extractionID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to decide review entry", err)
	}
	return score, nil
}

// ListPending returns undecided entries in insertion order
func (a *ReviewAdapter) ListPending(ctx context.Context) ([]*entities.ConfidenceScore, error) {
	return a.list(ctx, goqu.Ex{"review_status": string(entities.ReviewStatusPending)})
}

// ListAll returns every queued entry, decided or not, in insertion order
func (a *ReviewAdapter) ListAll(ctx context.Context) ([]*entities.ConfidenceScore, error) {
	return a.list(ctx, nil)
}

func (a *ReviewAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.ConfidenceScore, error) {
	ds := a.db.From(reviewQueueTable).
		Select(reviewColumns()...).
		Order(goqu.C("position").Asc())
	if where != nil {
		ds = ds.Where(where)
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build review list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list review entries", err)
	}
	defer rows.Close()

	scores := []*entities.ConfidenceScore{}
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan review entry", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate review entries", err)
	}
	return scores, nil
}

func reviewColumns() []interface{} {
	return []interface{}{
		"extraction_id", "ocr_confidence", "ner_confidence", "validation_confidence",
		"overall_confidence", "requires_manual_review", "review_status",
		"review_notes", "extracted_data", "created_at",
	}
}

func scoreToRecord(score *entities.ConfidenceScore) (goqu.Record, error) {
	var extracted []byte
	if score.ExtractedData != nil {
		payload, err := json.Marshal(score.ExtractedData)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to marshal extracted data", err)
		}
		extracted = payload
	}

	return goqu.Record{
		"extraction_id":          score.ExtractionID,
		"ocr_confidence":         score.OCRConfidence,
		"ner_confidence":         score.NERConfidence,
		"validation_confidence":  score.ValidationConfidence,
		"overall_confidence":     score.OverallConfidence,
		"requires_manual_review": score.RequiresManualReview,
		"review_status":          string(score.ReviewStatus),
		"review_notes":           score.ReviewNotes,
		"extracted_data":         extracted,
		"created_at":             score.CreatedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScore(row rowScanner) (*entities.ConfidenceScore, error) {
	score := &entities.ConfidenceScore{}
	var status string
	var extracted []byte

	err := row.Scan(
		&score.ExtractionID,
		&score.OCRConfidence,
		&score.NERConfidence,
		&score.ValidationConfidence,
		&score.OverallConfidence,
		&score.RequiresManualReview,
		&status,
		&score.ReviewNotes,
		&extracted,
		&score.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	score.ReviewStatus = entities.ReviewStatus(status)
	if len(extracted) > 0 {
		data := &entities.ExtractedData{}
		if err := json.Unmarshal(extracted, data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extracted data: %w", err)
		}
		score.ExtractedData = data
	}
	return score, nil
}
