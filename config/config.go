// Package config collects the settings of a harvest run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/wikimedia-pl/mbckit"
)

const (
	// DefaultEndpoint is the OAI-PMH interface of the Mazovian Digital Library.
	DefaultEndpoint = "https://mbc.cyfrowemazowsze.pl/dlibra/oai-pmh-repository.xml"
	// DefaultSet, "Warszawa w ilustracji prasowej".
	DefaultSet = "MDL:CD:Warwilustrpras"

	EnvCommonsUser     = "MBC_COMMONS_USER"
	EnvCommonsPassword = "MBC_COMMONS_PASSWORD"
)

var (
	// DefaultScratchDir holds downloaded content until it is uploaded.
	DefaultScratchDir = filepath.Join(xdg.CacheHome, mbckit.AppName, "scratch")
	// DefaultEnvFile is read in addition to a .env in the working directory.
	DefaultEnvFile = filepath.Join(xdg.ConfigHome, mbckit.AppName, "env")
)

// Config for a harvest run. Credentials come from the environment only.
type Config struct {
	// Endpoint of the OAI-PMH interface.
	Endpoint string
	// Set to harvest, e.g. "MDL:CD:Warwilustrpras".
	Set string
	// LegacyResolve takes the content location from the Dublin Core
	// identifier field, instead of deriving it from the record identifier.
	LegacyResolve bool
	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool
	UserAgent          string
	MaxRetries         int
	Timeout            time.Duration
	// CommonsAPI is the MediaWiki action API endpoint.
	CommonsAPI      string
	CommonsUser     string
	CommonsPassword string
	// Comment is the upload edit summary.
	Comment string
	// CategoryFile is an optional YAML file with additional tag to category
	// entries.
	CategoryFile string
	// Offset, Limit and DryRun control the batch, see harvest.Runner.
	Offset int
	Limit  int
	DryRun bool
	// DumpFile receives assembled records as JSON lines, compressed by
	// extension.
	DumpFile   string
	ScratchDir string
}

// Default returns the settings of a plain run. Certificate checks are off by
// default, as the MBC servers present incomplete certificate chains.
func Default() Config {
	return Config{
		Endpoint:           DefaultEndpoint,
		Set:                DefaultSet,
		InsecureSkipVerify: true,
		UserAgent:          mbckit.DefaultUserAgent,
		MaxRetries:         3,
		Timeout:            60 * time.Second,
		ScratchDir:         DefaultScratchDir,
	}
}

// LoadEnv reads environment files, which do not override variables already
// set. Missing files are ignored.
func LoadEnv(filenames ...string) error {
	var existing []string
	for _, fn := range filenames {
		if _, err := os.Stat(fn); err == nil {
			existing = append(existing, fn)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv fills in credentials from the environment.
func (c *Config) ApplyEnv() {
	if c.CommonsUser == "" {
		c.CommonsUser = os.Getenv(EnvCommonsUser)
	}
	if c.CommonsPassword == "" {
		c.CommonsPassword = os.Getenv(EnvCommonsPassword)
	}
}

// Validate checks settings that would only fail later, mid-run.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("config: endpoint required")
	}
	if c.Offset < 0 {
		return fmt.Errorf("config: negative offset: %d", c.Offset)
	}
	if c.DryRun {
		return nil
	}
	if c.CommonsUser == "" || c.CommonsPassword == "" {
		return fmt.Errorf("config: set %s and %s, or use a dry run", EnvCommonsUser, EnvCommonsPassword)
	}
	return nil
}
