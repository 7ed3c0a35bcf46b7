package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"StaffBot/entity"
)

// LoadBot retrieves a bot record, nil if unknown.
func (m *MongoDB) LoadBot(ctx context.Context, botID string) (*entity.Bot, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(botsCollection)

	var bot entity.Bot
	err = collection.FindOne(ctx, bson.D{{Key: "id", Value: botID}}).Decode(&bot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &bot, nil
}

// LoadCredentials retrieves a bot's credentials for one platform, nil if
// none are attached.
func (m *MongoDB) LoadCredentials(ctx context.Context, botID, platform string) (*entity.Credentials, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(credentialsCollection)

	filter := bson.D{{Key: "bot_id", Value: botID}, {Key: "platform", Value: platform}}

	var creds entity.Credentials
	err = collection.FindOne(ctx, filter).Decode(&creds)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &creds, nil
}
