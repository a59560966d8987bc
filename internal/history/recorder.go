package history

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/prompt"
	"github.com/skybi/imagefx/internal/session"
	"github.com/skybi/imagefx/internal/user"
)

// Recorder turns the results of ImageFX operations into history records
type Recorder struct {
	users    user.Repository
	history  Repository
	sessions session.Storage
	logger   zerolog.Logger
}

// NewRecorder creates a new history recorder
func NewRecorder(users user.Repository, history Repository, sessions session.Storage, logger zerolog.Logger) *Recorder {
	return &Recorder{
		users:    users,
		history:  history,
		sessions: sessions,
		logger:   logger,
	}
}

// RecordSession stores the account of a freshly obtained session and the session itself
func (rec *Recorder) RecordSession(ctx context.Context, ses *auth.Session) (*user.User, error) {
	obj, err := rec.upsertUser(ctx, ses.User)
	if err != nil {
		return nil, err
	}
	if ses.ExpiresAt.IsZero() {
		return obj, nil
	}
	existing, err := rec.sessions.GetByRawToken(ctx, ses.Token)
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	if existing != nil && existing.UserID == obj.ID && existing.ExpiresAt.Equal(ses.ExpiresAt) {
		return obj, nil
	}
	if _, err := rec.sessions.Create(ctx, obj.ID, ses.Token, ses.ExpiresAt); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	return obj, nil
}

// ForgetSessions terminates every recorded session of the given account
func (rec *Recorder) ForgetSessions(ctx context.Context, owner auth.User) (*user.User, error) {
	obj, err := rec.ResolveUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := rec.sessions.TerminateByUserID(ctx, obj.ID); err != nil {
		return nil, fmt.Errorf("terminate sessions: %w", err)
	}
	return obj, nil
}

// SessionHook returns a function that records every refreshed session, logging failures instead of returning them
func (rec *Recorder) SessionHook() func(ctx context.Context, ses *auth.Session) {
	return func(ctx context.Context, ses *auth.Session) {
		if _, err := rec.RecordSession(ctx, ses); err != nil {
			rec.logger.Error().Err(err).Str("user", ses.User.Email).Msg("could not record the refreshed session")
		}
	}
}

// RecordGeneration stores a prompt and the images generated for it on behalf of the given account
func (rec *Recorder) RecordGeneration(ctx context.Context, owner auth.User, p prompt.Prompt, images []*image.GeneratedImage) (*Prompt, []*Image, error) {
	obj, err := rec.ResolveUser(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	promptObj, imageObjs, err := rec.history.CreateGeneration(ctx, &Generation{
		UserID: obj.ID,
		Prompt: p,
		Images: images,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("record generation: %w", err)
	}
	rec.logger.Debug().Str("user", obj.Email).Int("images", len(imageObjs)).Msg("recorded generation")
	return promptObj, imageObjs, nil
}

// RecordCaptions stores the captions generated for an image on behalf of the given account
func (rec *Recorder) RecordCaptions(ctx context.Context, owner auth.User, imagePath, imageType string, captions []string) ([]*Caption, error) {
	obj, err := rec.ResolveUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	objs, err := rec.history.CreateCaptions(ctx, &Captions{
		UserID:    obj.ID,
		ImagePath: imagePath,
		ImageType: imageType,
		Texts:     captions,
	})
	if err != nil {
		return nil, fmt.Errorf("record captions: %w", err)
	}
	return objs, nil
}

// ResolveUser looks up the stored user of an account, creating it if it does not exist yet
func (rec *Recorder) ResolveUser(ctx context.Context, owner auth.User) (*user.User, error) {
	obj, err := rec.users.GetByEmail(ctx, owner.Email)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if obj != nil {
		return obj, nil
	}
	return rec.upsertUser(ctx, owner)
}

func (rec *Recorder) upsertUser(ctx context.Context, owner auth.User) (*user.User, error) {
	obj, err := rec.users.Upsert(ctx, &user.Upsert{
		Email:    owner.Email,
		Name:     owner.Name,
		ImageURL: owner.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	return obj, nil
}
