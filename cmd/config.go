// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/filmloc/films"
	"github.com/jcodagnone/filmloc/geocode"
	"github.com/jcodagnone/filmloc/server"
	"github.com/jcodagnone/filmloc/spatial"
	"github.com/jcodagnone/filmloc/utils/httputils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys. The flags share these names and the environment
// variables are the upper case key with a FILMLOC_ prefix.
const (
	keyProvider      = "provider"
	keyUserAgent     = "user-agent"
	keyNominatimURL  = "nominatim-url"
	keyMinDelay      = "min-delay"
	keyCacheDB       = "cache-db"
	keyEncoding      = "encoding"
	keyTraceHTTP     = "trace-http"
	keyTraceHTTPBody = "trace-http-body"
	keyGoogleAPIKey  = "google.api-key"
	keyGoogleProject = "google.project"
	keyGoogleKeyName = "google.key-name"

	envPrefix = "FILMLOC"
)

const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// Config is the configuration shared by every command.
type Config struct {
	Provider      string
	UserAgent     string
	NominatimURL  string
	MinDelay      time.Duration
	CacheDB       string
	Encoding      string
	TraceHTTP     bool
	TraceHTTPBody bool

	GoogleAPIKey  string
	GoogleProject string
	GoogleKeyName string
}

// addConfigFlags registers the flags LoadConfig reads.
func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String(keyProvider, ProviderNominatim, "Geocoding provider: nominatim or google")
	flags.String(keyUserAgent, "", "User-Agent sent to the geocoding provider")
	flags.String(keyNominatimURL, "", "Base URL of the Nominatim instance")
	flags.Duration(keyMinDelay, geocode.DefaultMinDelay, "Minimum delay between geocoding requests")
	flags.String(keyCacheDB, "", "DuckDB file where resolved locations are persisted")
	flags.String(keyEncoding, "latin1", "Character encoding of the locations list")
	flags.Bool(keyTraceHTTP, false, "Display HTTP requests-responses")
	flags.Bool(keyTraceHTTPBody, false, "Display HTTP requests-responses bodies")
}

// LoadConfig merges, from lowest to highest precedence, flag defaults, the
// YAML file at configFile, the environment (a .env file in the working
// directory included) and the flags set on the command line.
func LoadConfig(cmd *cobra.Command, configFile string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyGoogleKeyName, geocode.DefaultAPIKeyDisplayName)
	_ = v.BindEnv(keyGoogleAPIKey, envPrefix+"_GOOGLE_API_KEY", "GOOGLE_MAPS_API_KEY")
	_ = v.BindEnv(keyGoogleProject, envPrefix+"_GOOGLE_PROJECT", "GOOGLE_CLOUD_PROJECT")

	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	c := &Config{
		Provider:      strings.ToLower(v.GetString(keyProvider)),
		UserAgent:     v.GetString(keyUserAgent),
		NominatimURL:  v.GetString(keyNominatimURL),
		MinDelay:      v.GetDuration(keyMinDelay),
		CacheDB:       v.GetString(keyCacheDB),
		Encoding:      v.GetString(keyEncoding),
		TraceHTTP:     v.GetBool(keyTraceHTTP),
		TraceHTTPBody: v.GetBool(keyTraceHTTPBody),
		GoogleAPIKey:  v.GetString(keyGoogleAPIKey),
		GoogleProject: v.GetString(keyGoogleProject),
		GoogleKeyName: v.GetString(keyGoogleKeyName),
	}

	if c.UserAgent == "" {
		c.UserAgent = fmt.Sprintf("filmloc/%s (+https://github.com/jcodagnone/filmloc)", Version)
	}

	if c.MinDelay < 0 {
		return nil, fmt.Errorf("%s must not be negative: %s", keyMinDelay, c.MinDelay)
	}

	return c, nil
}

// HTTPClient creates the client used to talk to the provider.
func (c *Config) HTTPClient() *http.Client {
	options := &httputils.ClientOptions{
		UserAgent: c.UserAgent,
		TraceBody: c.TraceHTTPBody,
	}
	if c.TraceHTTP || c.TraceHTTPBody {
		options.Trace = os.Stderr
	}

	return httputils.NewClient(options)
}

// Geocoder creates the configured provider. The Google Maps key, when not
// configured, is looked up with the Application Default Credentials.
func (c *Config) Geocoder(ctx context.Context) (geocode.Geocoder, error) {
	switch c.Provider {
	case ProviderNominatim:
		return geocode.NewNominatimGeocoder(c.NominatimURL, c.HTTPClient()), nil
	case ProviderGoogle:
		key := c.GoogleAPIKey
		if key == "" {
			log.Printf("No Google Maps API key configured, looking for %q", c.GoogleKeyName)

			var err error

			key, err = geocode.APIKeyFromADC(ctx, c.GoogleProject, c.GoogleKeyName)
			if err != nil {
				return nil, fmt.Errorf("getting google maps api key: %w", err)
			}
		}

		return geocode.NewGoogleMapsGeocoder(key, c.HTTPClient()), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, expected %s or %s", c.Provider, ProviderNominatim, ProviderGoogle)
	}
}

// openCache opens the DuckDB file at path and ensures the geocodes table.
func openCache(path string) (*sql.DB, geocode.CacheRepository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := geocode.NewCacheRepository(db)
	if err := repo.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

// NewResolver creates the resolver of a run. When a cache database is
// configured the resolver is seeded from it and writes new outcomes back;
// the returned function closes it.
func (c *Config) NewResolver(ctx context.Context) (*geocode.Resolver, func() error, error) {
	g, err := c.Geocoder(ctx)
	if err != nil {
		return nil, nil, err
	}

	options := &geocode.ResolverOptions{MinDelay: c.MinDelay}

	if c.CacheDB == "" {
		return geocode.NewResolver(g, options), func() error { return nil }, nil
	}

	db, repo, err := openCache(c.CacheDB)
	if err != nil {
		return nil, nil, err
	}

	options.Store = repo
	resolver := geocode.NewResolver(g, options)

	n, err := resolver.Seed(repo)
	if err != nil {
		_ = db.Close()

		return nil, nil, fmt.Errorf("loading cached locations: %w", err)
	}

	log.Printf("Loaded %d cached locations from %s", n, c.CacheDB)

	return resolver, db.Close, nil
}

type decodedFile struct {
	io.Reader
	io.Closer
}

// DatasetOpener opens the locations list at path decoding it to UTF-8.
func (c *Config) DatasetOpener(path string) server.DatasetOpener {
	return func() (io.ReadCloser, error) {
		f, err := os.Open(path) // #nosec G304 - path is provided by the operator
		if err != nil {
			return nil, fmt.Errorf("opening dataset: %w", err)
		}

		r, err := films.NewDecodingReader(f, c.Encoding)
		if err != nil {
			_ = f.Close()

			return nil, err
		}

		return decodedFile{Reader: r, Closer: f}, nil
	}
}

var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

// ErrInvalidYear is returned for years that aren't four digits.
var ErrInvalidYear = errors.New("year must have four digits")

func parseYear(s string) (string, error) {
	if !yearPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}

	return s, nil
}

func parseReference(lat, lng string) (spatial.Point, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid latitude %q", lat)
	}

	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("invalid longitude %q", lng)
	}

	p := spatial.Point{Lat: la, Lng: ln}
	if err := p.Validate(); err != nil {
		return spatial.Point{}, err
	}

	return p, nil
}

// yearAt validates that args[i] is a year.
func yearAt(i int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if i >= len(args) {
			return nil
		}

		_, err := parseYear(args[i])

		return err
	}
}

// referenceAt validates that args[i] and args[i+1] are a latitude and a
// longitude.
func referenceAt(i int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if i+1 >= len(args) {
			return nil
		}

		_, err := parseReference(args[i], args[i+1])

		return err
	}
}
