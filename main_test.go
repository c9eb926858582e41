package main

import (
	"context"
	"testing"

	"friendbox/config"
	"friendbox/notify"
	"friendbox/store"
	"friendbox/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg := &config.Config{StoreDriver: config.StoreMemory}

	users, closeStore, err := openStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &store.Memory{}, users)
}

func TestOpenPublisherDefaultsToHub(t *testing.T) {
	hub := websocket.NewHub(zap.NewNop())

	pub, closePublisher, err := openPublisher(context.Background(), &config.Config{}, hub, zap.NewNop())
	require.NoError(t, err)
	defer closePublisher()
	assert.Same(t, hub, pub)
	assert.NoError(t, pub.Publish(context.Background(), notify.FriendActivityEvent()))
}
