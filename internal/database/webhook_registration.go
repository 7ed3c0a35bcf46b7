package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"StaffBot/entity"
)

// ListWebhookRegistrations returns all stored webhook registrations.
func (m *MongoDB) ListWebhookRegistrations(ctx context.Context) ([]entity.WebhookRegistration, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(webhooksCollection)

	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var regs []entity.WebhookRegistration
	if err := cursor.All(ctx, &regs); err != nil {
		return nil, err
	}

	return regs, nil
}

// LoadWebhookRegistration retrieves one bot-platform registration, nil
// if none exists.
func (m *MongoDB) LoadWebhookRegistration(ctx context.Context, botID, platform string) (*entity.WebhookRegistration, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(webhooksCollection)

	filter := bson.D{{Key: "bot_id", Value: botID}, {Key: "platform", Value: platform}}

	var reg entity.WebhookRegistration
	err = collection.FindOne(ctx, filter).Decode(&reg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &reg, nil
}

// SaveWebhookRegistration upserts a registration.
func (m *MongoDB) SaveWebhookRegistration(ctx context.Context, reg *entity.WebhookRegistration) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(webhooksCollection)

	filter := bson.D{{Key: "bot_id", Value: reg.BotID}, {Key: "platform", Value: reg.Platform}}
	update := bson.D{{Key: "$set", Value: reg}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}
