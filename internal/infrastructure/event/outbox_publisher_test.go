package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOutboxPublisher_SaveEventsWithinTransaction(t *testing.T) {
	db := setupOutboxDB(t)
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})
	publisher := NewOutboxPublisher(serializer)
	vendorID := uuid.New()
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		return publisher.SaveEvents(ctx, tx, newTestEvent("TestEvent", vendorID))
	})
	require.NoError(t, err)

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, vendorID, pending[0].VendorID)
	assert.Equal(t, "TestEvent", pending[0].EventType)
}

func TestOutboxPublisher_RollbackDiscardsEvents(t *testing.T) {
	db := setupOutboxDB(t)
	serializer := NewEventSerializer()
	serializer.Register("TestEvent", &testEvent{})
	publisher := NewOutboxPublisher(serializer)
	ctx := context.Background()

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, publisher.SaveEvents(ctx, tx, newTestEvent("TestEvent", uuid.New())))
		return assert.AnError
	})

	pending, err := NewGormOutboxRepository(db).FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxPublisher_Rejects(t *testing.T) {
	publisher := NewOutboxPublisher(NewEventSerializer())
	ctx := context.Background()

	t.Run("unregistered event type", func(t *testing.T) {
		err := publisher.SaveEvents(ctx, setupOutboxDB(t), newTestEvent("Unknown", uuid.New()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not registered")
	})

	t.Run("wrong transaction provider", func(t *testing.T) {
		err := publisher.SaveEvents(ctx, "not a db", newTestEvent("Unknown", uuid.New()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "*gorm.DB")
	})

	t.Run("no events", func(t *testing.T) {
		assert.NoError(t, publisher.SaveEvents(ctx, nil))
	})
}
