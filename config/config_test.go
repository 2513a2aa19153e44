package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	require := require.New(t)

	custom, err := Initialize("./config.example.toml")
	require.Nil(err)

	require.Equal(5000, custom.Endpoint.InactivityCheckInterval)
	require.Equal(10000, custom.Endpoint.ConnectionTimeout)
	require.Equal(44815, custom.Host.ListeningPort)
	require.Equal("example host", custom.Discovery.Name)
	require.Equal("example", custom.Discovery.GameIdentifier)

	require.Equal(5*time.Second, custom.InactivityCheckInterval())
	require.Equal(10*time.Second, custom.ConnectionTimeout())
}

func TestConfigMissingFile(t *testing.T) {
	require := require.New(t)

	_, err := Initialize("./missing.toml")
	require.NotNil(err)
}
