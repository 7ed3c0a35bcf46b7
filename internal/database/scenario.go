package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"StaffBot/bot/scenario"
)

// LoadActiveScenario returns the scenario version currently active for
// a bot, nil if the bot has none.
func (m *MongoDB) LoadActiveScenario(ctx context.Context, botID string) (*scenario.Scenario, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	bots := connection.Database(m.database).Collection(botsCollection)

	var bot struct {
		ActiveScenarioID string `bson:"active_scenario_id"`
	}
	err = bots.FindOne(ctx, bson.D{{Key: "id", Value: botID}}).Decode(&bot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	if bot.ActiveScenarioID == "" {
		return nil, nil
	}

	scenarios := connection.Database(m.database).Collection(scenariosCollection)

	var sc scenario.Scenario
	err = scenarios.FindOne(ctx, bson.D{{Key: "id", Value: bot.ActiveScenarioID}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&sc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &sc, nil
}

// PublishScenario stores a new immutable scenario version and makes it
// the active one for the owning bot. The version id is assigned here.
func (m *MongoDB) PublishScenario(ctx context.Context, botID string, sc *scenario.Scenario) (string, error) {
	connection, err := m.connect()
	if err != nil {
		return "", err
	}
	defer m.disconnect(connection)

	sc.Version = uuid.NewString()
	sc.CreatedAt = time.Now()

	scenarios := connection.Database(m.database).Collection(scenariosCollection)
	if _, err := scenarios.InsertOne(ctx, sc); err != nil {
		return "", err
	}

	bots := connection.Database(m.database).Collection(botsCollection)
	filter := bson.D{{Key: "id", Value: botID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "active_scenario_id", Value: sc.ID}}}}
	opts := options.Update().SetUpsert(true)
	if _, err := bots.UpdateOne(ctx, filter, update, opts); err != nil {
		return "", err
	}

	return sc.Version, nil
}
