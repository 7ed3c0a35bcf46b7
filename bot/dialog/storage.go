package dialog

import "context"

// StateStorage handles persistence of dialog states.
type StateStorage interface {
	Save(ctx context.Context, state *DialogState) error
	Load(ctx context.Context, botID, platform, chatID string) (*DialogState, error)
}

// StateRepository defines the database operations for dialog state.
type StateRepository interface {
	SaveDialogState(ctx context.Context, state *DialogState) error
	LoadDialogState(ctx context.Context, botID, platform, chatID string) (*DialogState, error)
}

// MongoStateStorage adapts the database repository to the StateStorage
// interface.
type MongoStateStorage struct {
	repo StateRepository
}

// NewMongoStateStorage creates a new MongoDB dialog state storage.
func NewMongoStateStorage(repo StateRepository) *MongoStateStorage {
	return &MongoStateStorage{repo: repo}
}

func (s *MongoStateStorage) Save(ctx context.Context, state *DialogState) error {
	return s.repo.SaveDialogState(ctx, state)
}

func (s *MongoStateStorage) Load(ctx context.Context, botID, platform, chatID string) (*DialogState, error) {
	return s.repo.LoadDialogState(ctx, botID, platform, chatID)
}
