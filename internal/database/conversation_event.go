package repository

import (
	"context"

	"StaffBot/entity"
)

// SaveConversationEvent appends one event. Events are write-once and
// never updated.
func (m *MongoDB) SaveConversationEvent(ctx context.Context, event entity.ConversationEvent) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	_, err = collection.InsertOne(ctx, event)
	return err
}
