package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/prompt"
)

// HistoryRepository implements the history.Repository interface using PostgreSQL
type HistoryRepository struct {
	db *pgxpool.Pool
}

var _ history.Repository = (*HistoryRepository)(nil)

// CreateGeneration records a prompt and its images atomically
func (repo *HistoryRepository) CreateGeneration(ctx context.Context, gen *history.Generation) (*history.Prompt, []*history.Image, error) {
	now := time.Now().UTC()
	normalized := gen.Prompt.Normalize()
	promptObj := &history.Prompt{
		ID:          uuid.New(),
		UserID:      gen.UserID,
		Text:        normalized.Text,
		Seed:        normalized.Seed,
		ImageCount:  normalized.ImageCount,
		AspectRatio: normalized.AspectRatio,
		Model:       normalized.Model,
		CreatedAt:   now,
	}
	if len(gen.Images) > 0 {
		promptObj.WorkflowID = gen.Images[0].WorkflowID
	}

	// Begin a new transaction
	tx, err := repo.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	// Create the prompt row itself
	_, err = tx.Exec(
		ctx,
		"INSERT INTO prompts (prompt_id, user_id, prompt_text, seed, image_count, aspect_ratio, model, workflow_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		promptObj.ID,
		promptObj.UserID,
		promptObj.Text,
		promptObj.Seed,
		promptObj.ImageCount,
		string(promptObj.AspectRatio),
		string(promptObj.Model),
		promptObj.WorkflowID,
		promptObj.CreatedAt,
	)
	if err != nil {
		return nil, nil, err
	}

	// Create the rows of all generated images
	images := make([]*history.Image, 0, len(gen.Images))
	if len(gen.Images) > 0 {
		query := squirrel.Insert("generated_images").Columns(
			"image_id",
			"user_id",
			"prompt_id",
			"media_id",
			"encoded_image",
			"seed",
			"model",
			"aspect_ratio",
			"fingerprint_id",
			"workflow_id",
			"created_at",
		)
		for _, img := range gen.Images {
			promptID := promptObj.ID
			obj := &history.Image{
				ID:            uuid.New(),
				UserID:        gen.UserID,
				PromptID:      &promptID,
				PromptText:    promptObj.Text,
				MediaID:       img.MediaID,
				EncodedImage:  img.EncodedImage,
				Seed:          img.Seed,
				Model:         img.Model,
				AspectRatio:   img.AspectRatio,
				FingerprintID: img.FingerprintID,
				WorkflowID:    img.WorkflowID,
				CreatedAt:     now,
			}
			query = query.Values(
				obj.ID,
				obj.UserID,
				promptID,
				obj.MediaID,
				obj.EncodedImage,
				obj.Seed,
				string(obj.Model),
				string(obj.AspectRatio),
				obj.FingerprintID,
				obj.WorkflowID,
				obj.CreatedAt,
			)
			images = append(images, obj)
		}
		sql, vals, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.Exec(ctx, sql, vals...); err != nil {
			return nil, nil, err
		}
	}

	// Commit the changes
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return promptObj, images, nil
}

// CreateCaptions records the captions of an image
func (repo *HistoryRepository) CreateCaptions(ctx context.Context, create *history.Captions) ([]*history.Caption, error) {
	if len(create.Texts) == 0 {
		return []*history.Caption{}, nil
	}

	now := time.Now().UTC()
	query := squirrel.Insert("image_captions").Columns(
		"caption_id",
		"user_id",
		"image_path",
		"image_type",
		"caption_text",
		"created_at",
	)
	captions := make([]*history.Caption, 0, len(create.Texts))
	for _, text := range create.Texts {
		obj := &history.Caption{
			ID:        uuid.New(),
			UserID:    create.UserID,
			ImagePath: create.ImagePath,
			ImageType: create.ImageType,
			Text:      text,
			CreatedAt: now,
		}
		query = query.Values(obj.ID, obj.UserID, obj.ImagePath, obj.ImageType, obj.Text, obj.CreatedAt)
		captions = append(captions, obj)
	}

	sql, vals, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := repo.db.Exec(ctx, sql, vals...); err != nil {
		return nil, err
	}
	return captions, nil
}

// GetPrompts retrieves the latest prompts of a user (newest first)
func (repo *HistoryRepository) GetPrompts(ctx context.Context, userID uuid.UUID, limit uint64) ([]*history.Prompt, error) {
	sql, vals, err := selectPromptsQuery(userID, limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objs := []*history.Prompt{}
	for rows.Next() {
		obj := new(history.Prompt)
		var rawAspectRatio, rawModel string
		err := rows.Scan(
			&obj.ID,
			&obj.UserID,
			&obj.Text,
			&obj.Seed,
			&obj.ImageCount,
			&rawAspectRatio,
			&rawModel,
			&obj.WorkflowID,
			&obj.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		obj.AspectRatio = prompt.AspectRatio(rawAspectRatio)
		obj.Model = prompt.Model(rawModel)
		objs = append(objs, obj)
	}
	return objs, rows.Err()
}

// GetImages retrieves the latest generated images of a user (newest first) together with their prompt texts
func (repo *HistoryRepository) GetImages(ctx context.Context, userID uuid.UUID, limit uint64) ([]*history.Image, error) {
	sql, vals, err := selectImagesQuery(userID, limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objs := []*history.Image{}
	for rows.Next() {
		obj, err := repo.rowToImage(rows)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, rows.Err()
}

// GetCaptions retrieves the latest captions of a user (newest first)
func (repo *HistoryRepository) GetCaptions(ctx context.Context, userID uuid.UUID, limit uint64) ([]*history.Caption, error) {
	sql, vals, err := selectCaptionsQuery(userID, limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	objs := []*history.Caption{}
	for rows.Next() {
		obj := new(history.Caption)
		if err := rows.Scan(&obj.ID, &obj.UserID, &obj.ImagePath, &obj.ImageType, &obj.Text, &obj.MediaID, &obj.CreatedAt); err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, rows.Err()
}

func (repo *HistoryRepository) rowToImage(row pgx.Row) (*history.Image, error) {
	obj := new(history.Image)
	var promptID uuid.NullUUID
	var rawModel, rawAspectRatio string
	err := row.Scan(
		&obj.ID,
		&obj.UserID,
		&promptID,
		&obj.PromptText,
		&obj.MediaID,
		&obj.EncodedImage,
		&obj.Seed,
		&rawModel,
		&rawAspectRatio,
		&obj.FingerprintID,
		&obj.WorkflowID,
		&obj.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if promptID.Valid {
		id := promptID.UUID
		obj.PromptID = &id
	}
	obj.Model = prompt.Model(rawModel)
	obj.AspectRatio = prompt.AspectRatio(rawAspectRatio)
	return obj, nil
}

func selectPromptsQuery(userID uuid.UUID, limit uint64) squirrel.SelectBuilder {
	return squirrel.Select(
		"prompt_id",
		"user_id",
		"prompt_text",
		"seed",
		"image_count",
		"aspect_ratio",
		"model",
		"workflow_id",
		"created_at",
	).From("prompts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(history.NormalizeLimit(limit)).
		PlaceholderFormat(squirrel.Dollar)
}

func selectImagesQuery(userID uuid.UUID, limit uint64) squirrel.SelectBuilder {
	return squirrel.Select(
		"generated_images.image_id",
		"generated_images.user_id",
		"generated_images.prompt_id",
		"COALESCE(prompts.prompt_text, '')",
		"generated_images.media_id",
		"generated_images.encoded_image",
		"generated_images.seed",
		"generated_images.model",
		"generated_images.aspect_ratio",
		"generated_images.fingerprint_id",
		"generated_images.workflow_id",
		"generated_images.created_at",
	).From("generated_images").
		JoinClause("LEFT JOIN prompts ON generated_images.prompt_id = prompts.prompt_id").
		Where(squirrel.Eq{"generated_images.user_id": userID}).
		OrderBy("generated_images.created_at DESC").
		Limit(history.NormalizeLimit(limit)).
		PlaceholderFormat(squirrel.Dollar)
}

func selectCaptionsQuery(userID uuid.UUID, limit uint64) squirrel.SelectBuilder {
	return squirrel.Select(
		"caption_id",
		"user_id",
		"image_path",
		"image_type",
		"caption_text",
		"media_id",
		"created_at",
	).From("image_captions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(history.NormalizeLimit(limit)).
		PlaceholderFormat(squirrel.Dollar)
}
