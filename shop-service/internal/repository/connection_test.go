package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongoOptions_ClientOptions(t *testing.T) {
	opts := MongoOptions{
		URI:                    "mongodb://localhost:27017",
		MaxPoolSize:            20,
		MinPoolSize:            2,
		ConnectTimeout:         3 * time.Second,
		ServerSelectionTimeout: 2 * time.Second,
	}.clientOptions()

	require.NotNil(t, opts.MaxPoolSize)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
	require.NotNil(t, opts.MinPoolSize)
	assert.Equal(t, uint64(2), *opts.MinPoolSize)
	require.NotNil(t, opts.ConnectTimeout)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
	require.NotNil(t, opts.ServerSelectionTimeout)
	assert.Equal(t, 2*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, []string{"localhost:27017"}, opts.Hosts)
}

func TestMongoOptions_ZeroKeepsDriverDefaults(t *testing.T) {
	opts := MongoOptions{URI: "mongodb://localhost:27017"}.clientOptions()

	assert.Nil(t, opts.MaxPoolSize)
	assert.Nil(t, opts.MinPoolSize)
	assert.Nil(t, opts.ConnectTimeout)
	assert.Nil(t, opts.ServerSelectionTimeout)
}
