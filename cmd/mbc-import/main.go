// mbc-import harvests a set from a dLibra digital library and uploads the
// images to Wikimedia Commons.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
	"github.com/wikimedia-pl/mbckit"
	"github.com/wikimedia-pl/mbckit/classify"
	"github.com/wikimedia-pl/mbckit/commons"
	"github.com/wikimedia-pl/mbckit/config"
	"github.com/wikimedia-pl/mbckit/dlibra"
	"github.com/wikimedia-pl/mbckit/feeds"
	"github.com/wikimedia-pl/mbckit/harvest"
	"github.com/wikimedia-pl/mbckit/xio"
)

var docs = strings.TrimLeft(`
# mbc-import - dLibra to Wikimedia Commons

Lists all records of an OAI-PMH set, finds the image of each record, enriches
the metadata from the RDF export and uploads the image with an {{Artwork}}
description. Files already on Commons are left alone.

## credentials

A bot password (Special:BotPasswords) is read from the environment, or from
a .env file in the working directory or ~/.config/mbckit/env:

	MBC_COMMONS_USER=Mazovian_Digital_Library_Upload@harvest
	MBC_COMMONS_PASSWORD=...

## certificates

The MBC servers present incomplete certificate chains, so TLS certificates
are not verified by default. Pass -verify-tls to turn checks on.

## examples

Look at the first record only, without uploading:

	$ mbc-import -n -limit -1 -log-level debug

Assemble a whole set into a compressed file:

	$ mbc-import -n -set MDL:CD:Warwilustrpras -dump records.jsonl.zst

Upload, continuing after the first 100 records:

	$ mbc-import -offset 100

## flags

`, "\n")

var defaults = config.Default()

var (
	endpoint      = flag.String("endpoint", defaults.Endpoint, "OAI-PMH endpoint")
	setName       = flag.String("set", defaults.Set, "OAI set to harvest")
	legacyResolve = flag.Bool("legacy", false, "take the content location from the dc:identifier field")
	verifyTLS     = flag.Bool("verify-tls", !defaults.InsecureSkipVerify, "verify TLS certificates")
	userAgent     = flag.String("ua", defaults.UserAgent, "user agent")
	maxRetries    = flag.Int("r", defaults.MaxRetries, "max retries")
	timeout       = flag.Duration("T", defaults.Timeout, "request timeout")
	commonsAPI    = flag.String("api", commons.DefaultEndpoint, "MediaWiki API endpoint")
	comment       = flag.String("comment", commons.DefaultComment, "upload comment")
	categoryFile  = flag.String("categories", "", "YAML file with additional tag to category entries")
	offset        = flag.Int("offset", 0, "number of records to pass over")
	limit         = flag.Int("limit", 0, "max number of records to process, 0 for all, -1 to stop after the first")
	dryRun        = flag.Bool("n", false, "dry run, assemble records, but do not upload")
	dumpFile      = flag.String("dump", "", "write assembled records as JSON lines to file (.zst, .gz compressed)")
	scratchDir    = flag.String("scratch", defaults.ScratchDir, "directory for downloads")
	logLevel      = flag.String("log-level", "info", "log level")
	showStats     = flag.Bool("stats", false, "write run stats as JSON to stdout")
	showVersion   = flag.Bool("version", false, "show version")
)

func main() {
	flag.Usage = func() {
		io.WriteString(os.Stderr, docs)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Println(mbckit.Version)
		os.Exit(0)
	}
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)
	if err := config.LoadEnv(".env", config.DefaultEnvFile); err != nil {
		log.Fatal(err)
	}
	cfg := &config.Config{
		Endpoint:           *endpoint,
		Set:                *setName,
		LegacyResolve:      *legacyResolve,
		InsecureSkipVerify: !*verifyTLS,
		UserAgent:          *userAgent,
		MaxRetries:         *maxRetries,
		Timeout:            *timeout,
		CommonsAPI:         *commonsAPI,
		Comment:            *comment,
		CategoryFile:       *categoryFile,
		Offset:             *offset,
		Limit:              *limit,
		DryRun:             *dryRun,
		DumpFile:           *dumpFile,
		ScratchDir:         *scratchDir,
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	runID := uuid.New().String()
	log.WithFields(log.Fields{
		"run":      runID,
		"endpoint": cfg.Endpoint,
		"set":      cfg.Set,
		"dry_run":  cfg.DryRun,
	}).Info("starting harvest")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	client := feeds.NewClient(feeds.HTTPConfig{
		UserAgent:          cfg.UserAgent,
		Timeout:            cfg.Timeout,
		MaxRetries:         cfg.MaxRetries,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	table := classify.DefaultTable
	if cfg.CategoryFile != "" {
		extra, err := classify.LoadTable(cfg.CategoryFile)
		if err != nil {
			log.Fatal(err)
		}
		table = table.Merge(extra)
	}
	resolver := &dlibra.Resolver{Client: client}
	if cfg.LegacyResolve {
		resolver.Mode = dlibra.ResolveIdentifierField
	}
	harvester := &feeds.Harvester{
		Client:   client,
		Endpoint: cfg.Endpoint,
		Set:      cfg.Set,
	}
	runner := &harvest.Runner{
		Records: harvester.Records(ctx),
		Assembler: &dlibra.Assembler{
			Resolver: resolver,
			Enricher: &dlibra.Enricher{Client: client},
		},
		Client:     client,
		Categories: table,
		Comment:    cfg.Comment,
		Offset:     cfg.Offset,
		Limit:      cfg.Limit,
		DryRun:     cfg.DryRun,
		ScratchDir: cfg.ScratchDir,
		RunID:      runID,
	}
	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.ScratchDir, 0755); err != nil {
			log.Fatal(err)
		}
		wiki := &commons.Client{Doer: client, Endpoint: cfg.CommonsAPI}
		if err := wiki.Login(ctx, cfg.CommonsUser, cfg.CommonsPassword); err != nil {
			log.Fatal(err)
		}
		runner.Uploader = wiki
	}
	var dump *xio.File
	if cfg.DumpFile != "" {
		if dump, err = xio.Create(cfg.DumpFile); err != nil {
			log.Fatal(err)
		}
		runner.Dump = dump
	}
	started := time.Now()
	stats, err := runner.Run(ctx)
	if err != nil {
		if dump != nil {
			_ = dump.Abort()
		}
		log.Fatal(err)
	}
	if dump != nil {
		if err := dump.Close(); err != nil {
			log.Fatal(err)
		}
	}
	log.WithFields(log.Fields{
		"run":     runID,
		"elapsed": time.Since(started).Round(time.Millisecond),
	}).Info("harvest finished")
	if *showStats {
		if err := json.NewEncoder(os.Stdout).Encode(stats); err != nil {
			log.Fatal(err)
		}
	}
}
