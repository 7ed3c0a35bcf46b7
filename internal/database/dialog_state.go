package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"StaffBot/bot/dialog"
)

// SaveDialogState upserts a chat's dialog state.
func (m *MongoDB) SaveDialogState(ctx context.Context, state *dialog.DialogState) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(dialogStatesCollection)

	state.LastInteractionAt = time.Now()

	filter := bson.D{
		{Key: "bot_id", Value: state.BotID},
		{Key: "platform", Value: state.Platform},
		{Key: "chat_id", Value: state.ChatID},
	}
	update := bson.D{{Key: "$set", Value: state}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return err
	}

	return nil
}

// LoadDialogState retrieves a chat's dialog state, nil if none exists.
func (m *MongoDB) LoadDialogState(ctx context.Context, botID, platform, chatID string) (*dialog.DialogState, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(dialogStatesCollection)

	filter := bson.D{
		{Key: "bot_id", Value: botID},
		{Key: "platform", Value: platform},
		{Key: "chat_id", Value: chatID},
	}

	var state dialog.DialogState
	err = collection.FindOne(ctx, filter).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &state, nil
}
