// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the settings shared by every command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/places/places"
	"github.com/jcodagnone/places/spatial"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "places.yaml"

// Environment variables.
const (
	EnvAPIKey   = "GOOGLE_MAPS_API_KEY"
	EnvLanguage = "PLACES_LANGUAGE"
	EnvRegion   = "PLACES_REGION"
)

// Bias narrows autocomplete results.
type Bias struct {
	// Location is "lat,lng"
	Location     string   `yaml:"location"`
	Radius       float64  `yaml:"radius"`
	Types        []string `yaml:"types"`
	Countries    []string `yaml:"countries"`
	StrictBounds bool     `yaml:"strict_bounds"`
}

// Config holds the settings of the places commands.
type Config struct {
	APIKey string `yaml:"api_key"`

	// ProjectID and KeyDisplayName are used to find the key through ADC
	ProjectID      string `yaml:"project_id"`
	KeyDisplayName string `yaml:"key_display_name"`

	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Language string        `yaml:"language"`
	Region   string        `yaml:"region"`
	Bias     Bias          `yaml:"bias"`

	DBPath string `yaml:"db_path"`
	Addr   string `yaml:"addr"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		BaseURL: places.DefaultBaseURL,
		Timeout: 10 * time.Second,
		DBPath:  "db",
		Addr:    "localhost:8080",
	}
}

// Load reads path on top of the defaults, then applies the environment and
// the .env file of the working directory. An empty path reads DefaultFile
// when it exists. The result is not validated, callers layer their own
// settings and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	dotenv, err := readDotEnv(".env")
	if err != nil {
		return nil, err
	}

	cfg.applyEnv(envLookup(dotenv))

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	return nil
}

// readDotEnv returns the variables of files that exist.
func readDotEnv(files ...string) (map[string]string, error) {
	vars := map[string]string{}

	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}

		for k, v := range m {
			vars[k] = v
		}
	}

	return vars, nil
}

// envLookup prefers the process environment over dotenv, like godotenv.Load.
func envLookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}

		v, ok := dotenv[key]

		return v, ok
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.APIKey = v
	}

	if v, ok := lookup(EnvLanguage); ok && v != "" {
		c.Language = v
	}

	if v, ok := lookup(EnvRegion); ok && v != "" {
		c.Region = v
	}
}

// Validate checks the values that can't be checked by the yaml decoder.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout can't be negative: %s", c.Timeout)
	}

	if c.Bias.Radius < 0 {
		return fmt.Errorf("bias radius can't be negative: %g", c.Bias.Radius)
	}

	if _, err := c.Bias.Point(); err != nil {
		return fmt.Errorf("bias location: %w", err)
	}

	if c.Bias.StrictBounds && c.Bias.Location == "" {
		return errors.New("bias strict_bounds requires a location")
	}

	return nil
}

// Point returns the parsed location, nil when unset.
func (b *Bias) Point() (*spatial.Point, error) {
	if strings.TrimSpace(b.Location) == "" {
		return nil, nil
	}

	p, err := spatial.ParsePoint(b.Location)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// AutocompleteRequest returns a request for input carrying the configured bias.
func (c *Config) AutocompleteRequest(input string) (*places.AutocompleteRequest, error) {
	location, err := c.Bias.Point()
	if err != nil {
		return nil, err
	}

	return &places.AutocompleteRequest{
		Input:        input,
		Location:     location,
		Radius:       c.Bias.Radius,
		StrictBounds: c.Bias.StrictBounds,
		Language:     c.Language,
		Region:       c.Region,
		Types:        c.Bias.Types,
		Countries:    c.Bias.Countries,
	}, nil
}

// DetailsRequest returns a details request for placeID.
func (c *Config) DetailsRequest(placeID string) *places.DetailsRequest {
	return &places.DetailsRequest{
		PlaceID:  placeID,
		Language: c.Language,
		Region:   c.Region,
	}
}

// ClientOptions returns the options for places.NewClient.
func (c *Config) ClientOptions(userAgent string) *places.ClientOptions {
	return &places.ClientOptions{
		BaseURL:   c.BaseURL,
		UserAgent: userAgent,
		Timeout:   c.Timeout,
	}
}
