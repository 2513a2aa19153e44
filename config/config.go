package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

// Custom is the options file of the bundled commands. Durations are given in
// milliseconds; zero values fall back to the framework defaults.
type Custom struct {
	Endpoint struct {
		InactivityCheckInterval int `toml:"inactivity-check-interval"`
		ConnectionTimeout       int `toml:"connection-timeout"`
	} `toml:"endpoint"`
	Host struct {
		ListeningPort int `toml:"listening-port"`
	} `toml:"host"`
	Discovery struct {
		Name           string `toml:"name"`
		GameIdentifier string `toml:"game-identifier"`
		Port           int    `toml:"port"`
	} `toml:"discovery"`
}

// Initialize reads and decodes an options file, backfilling defaults for
// everything the file leaves at zero.
func Initialize(file string) (*Custom, error) {
	f, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var config Custom
	err = toml.Unmarshal(f, &config)
	if err != nil {
		return nil, err
	}
	if config.Endpoint.InactivityCheckInterval == 0 {
		config.Endpoint.InactivityCheckInterval = 5000
	}
	if config.Endpoint.ConnectionTimeout == 0 {
		config.Endpoint.ConnectionTimeout = 10000
	}
	if config.Host.ListeningPort == 0 {
		config.Host.ListeningPort = 44815
	}
	if config.Discovery.Name == "" {
		config.Discovery.Name = "tbnf host"
	}
	return &config, nil
}

// Returns the inactivity check interval as a duration.
func (c *Custom) InactivityCheckInterval() time.Duration {
	return time.Duration(c.Endpoint.InactivityCheckInterval) * time.Millisecond
}

// Returns the connection timeout as a duration.
func (c *Custom) ConnectionTimeout() time.Duration {
	return time.Duration(c.Endpoint.ConnectionTimeout) * time.Millisecond
}
