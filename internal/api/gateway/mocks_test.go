package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/history"
	"github.com/skybi/imagefx/internal/image"
	"github.com/skybi/imagefx/internal/prompt"
	"github.com/skybi/imagefx/internal/session"
	"github.com/skybi/imagefx/internal/session/storage/inmem"
	"github.com/skybi/imagefx/internal/user"
)

type fakeClient struct {
	mu sync.Mutex

	account  auth.User
	userErr  error
	images   []*image.GeneratedImage
	captions []string
	err      error

	lastPrompt   prompt.Prompt
	lastRetries  int
	lastID       string
	lastImage    string
	lastMimeType string
	lastCount    int
}

func (client *fakeClient) User(context.Context) (auth.User, error) {
	return client.account, client.userErr
}

func (client *fakeClient) GenerateImage(_ context.Context, p prompt.Prompt, maxRetries int) ([]*image.GeneratedImage, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.lastPrompt = p
	client.lastRetries = maxRetries
	return client.images, client.err
}

func (client *fakeClient) GetImageByID(_ context.Context, id string) (*image.GeneratedImage, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.lastID = id
	if client.err != nil {
		return nil, client.err
	}
	return client.images[0], nil
}

func (client *fakeClient) GenerateCaptions(_ context.Context, imageBase64, mimeType string, count int) ([]string, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.lastImage = imageBase64
	client.lastMimeType = mimeType
	client.lastCount = count
	return client.captions, client.err
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, rawIDToken string) (*oidc.IDToken, error) {
	if rawIDToken != "valid-id-token" {
		return nil, errors.New("oidc: malformed jwt")
	}
	return &oidc.IDToken{Subject: "subject"}, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func (repo *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, obj := range repo.users {
		if obj.ID == id {
			return obj, nil
		}
	}
	return nil, nil
}

func (repo *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.users[strings.ToLower(email)], nil
}

func (repo *fakeUsers) Upsert(_ context.Context, upsert *user.Upsert) (*user.User, error) {
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	obj, ok := repo.users[upsert.Email]
	if !ok {
		obj = &user.User{ID: uuid.New(), Email: upsert.Email}
		repo.users[upsert.Email] = obj
	}
	obj.Name = upsert.Name
	return obj, nil
}

type fakeHistory struct {
	mu       sync.Mutex
	prompts  []*history.Prompt
	images   []*history.Image
	captions []*history.Caption
	limits   []uint64
}

func (repo *fakeHistory) CreateGeneration(_ context.Context, gen *history.Generation) (*history.Prompt, []*history.Image, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	promptObj := &history.Prompt{ID: uuid.New(), UserID: gen.UserID, Text: gen.Prompt.Text}
	repo.prompts = append([]*history.Prompt{promptObj}, repo.prompts...)
	images := make([]*history.Image, 0, len(gen.Images))
	for _, img := range gen.Images {
		images = append(images, &history.Image{ID: uuid.New(), UserID: gen.UserID, PromptID: &promptObj.ID, PromptText: promptObj.Text, MediaID: img.MediaID})
	}
	repo.images = append(images, repo.images...)
	return promptObj, images, nil
}

func (repo *fakeHistory) CreateCaptions(_ context.Context, create *history.Captions) ([]*history.Caption, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	objs := make([]*history.Caption, 0, len(create.Texts))
	for _, text := range create.Texts {
		objs = append(objs, &history.Caption{ID: uuid.New(), UserID: create.UserID, ImagePath: create.ImagePath, ImageType: create.ImageType, Text: text})
	}
	repo.captions = append(objs, repo.captions...)
	return objs, nil
}

func (repo *fakeHistory) GetPrompts(_ context.Context, userID uuid.UUID, limit uint64) ([]*history.Prompt, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.limits = append(repo.limits, limit)
	return filterLimit(repo.prompts, limit, func(obj *history.Prompt) bool { return obj.UserID == userID }), nil
}

func (repo *fakeHistory) GetImages(_ context.Context, userID uuid.UUID, limit uint64) ([]*history.Image, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.limits = append(repo.limits, limit)
	return filterLimit(repo.images, limit, func(obj *history.Image) bool { return obj.UserID == userID }), nil
}

func (repo *fakeHistory) GetCaptions(_ context.Context, userID uuid.UUID, limit uint64) ([]*history.Caption, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.limits = append(repo.limits, limit)
	return filterLimit(repo.captions, limit, func(obj *history.Caption) bool { return obj.UserID == userID }), nil
}

func filterLimit[T any](objs []T, limit uint64, keep func(T) bool) []T {
	filtered := []T{}
	for _, obj := range objs {
		if uint64(len(filtered)) == limit {
			break
		}
		if keep(obj) {
			filtered = append(filtered, obj)
		}
	}
	return filtered
}

type fakeDriver struct {
	users    *fakeUsers
	history  *fakeHistory
	sessions *inmem.Driver
}

func newFakeDriver() *fakeDriver {
	sessions, err := inmem.New()
	if err != nil {
		panic(err)
	}
	return &fakeDriver{
		users:    &fakeUsers{users: map[string]*user.User{}},
		history:  &fakeHistory{},
		sessions: sessions,
	}
}

func (driver *fakeDriver) Initialize(context.Context) error { return nil }
func (driver *fakeDriver) Users() user.Repository           { return driver.users }
func (driver *fakeDriver) History() history.Repository      { return driver.history }
func (driver *fakeDriver) Sessions() session.Storage        { return driver.sessions }
func (driver *fakeDriver) Close()                           {}
