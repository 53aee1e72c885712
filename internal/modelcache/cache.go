// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package modelcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/juju/clock"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/telebridge/internal/cache"
	"github.com/tomtom215/telebridge/internal/logging"
	"github.com/tomtom215/telebridge/internal/metrics"
	"github.com/tomtom215/telebridge/internal/validation"
)

// Fetch outcomes, used as the result label of the fetch counter.
const (
	ResultHit            = "hit"
	ResultDownloaded     = "downloaded"
	ResultIntegrityError = "integrity_error"
	ResultError          = "error"
)

// maxMetadataBytes bounds the metadata response body.
const maxMetadataBytes = 1 << 20

// Metadata is the metadata server's description of a model.
type Metadata struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Asset is a verified model file on local disk.
type Asset struct {
	Name   string
	Path   string
	SHA256 string
	Size   int64
}

// Config configures a Cache.
type Config struct {
	// BaseURL of the metadata server; metadata is read from
	// {BaseURL}/models/{name}.
	BaseURL string
	// Dir holds the verified files.
	Dir string
	// Timeout bounds one metadata request or download.
	Timeout time.Duration
	// HTTPClient defaults to a client without a global timeout.
	HTTPClient *http.Client
	Breaker    BreakerSettings
	// VerifiedTTL is how long a hashed file is trusted without re-reading
	// it, as long as its size and modification time are unchanged.
	VerifiedTTL time.Duration
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// fileStamp records a file that was hashed and matched its metadata.
type fileStamp struct {
	sha256  string
	size    int64
	modTime time.Time
}

// Cache fetches model assets once, verifies them and serves them from disk.
type Cache struct {
	cfg     Config
	base    *url.URL
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Metadata]
	group   singleflight.Group
	stamps  *cache.LRU[string, fileStamp]
}

// New creates the cache directory if needed.
func New(cfg Config) (*Cache, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("model base url %q: invalid", cfg.BaseURL)
	}
	if cfg.Dir == "" {
		return nil, errors.New("model cache dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create model cache dir: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.VerifiedTTL <= 0 {
		cfg.VerifiedTTL = 10 * time.Minute
	}
	if cfg.Breaker == (BreakerSettings{}) {
		cfg.Breaker = DefaultBreakerSettings()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Cache{
		cfg:     cfg,
		base:    base,
		client:  client,
		breaker: newBreaker(cfg.Breaker),
		stamps:  cache.NewLRU[string, fileStamp](256, cfg.VerifiedTTL, cfg.Clock),
	}, nil
}

// Fetch returns the verified asset for name, downloading it when the cached
// copy is missing or does not match the current metadata. Concurrent calls
// for the same name share one download.
func (c *Cache) Fetch(ctx context.Context, name string) (Asset, error) {
	if !validation.IsModelName(name) {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	log := logging.Ctx(ctx).With().Str("component", "modelcache").Str("model", name).Logger()

	meta, err := c.execute(func() (*Metadata, error) {
		return c.metadata(ctx, name)
	})
	if err != nil {
		metrics.RecordModelFetch(ResultError, 0)
		return Asset{}, err
	}

	path := filepath.Join(c.cfg.Dir, name)
	if c.verified(path, meta) {
		metrics.RecordModelFetch(ResultHit, 0)
		return assetFor(meta, path), nil
	}

	// Detached so one caller giving up does not fail the others.
	ch := c.group.DoChan(name+"@"+meta.SHA256, func() (any, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.Timeout)
		defer cancel()
		start := time.Now()
		c.stamps.Remove(path)
		err := c.download(dctx, meta, path)
		switch {
		case errors.Is(err, ErrIntegrity):
			metrics.RecordModelFetch(ResultIntegrityError, 0)
			log.Warn().Err(err).Msg("Model integrity check failed")
		case err != nil:
			metrics.RecordModelFetch(ResultError, 0)
			log.Warn().Err(err).Msg("Model download failed")
		default:
			metrics.RecordModelFetch(ResultDownloaded, time.Since(start))
			log.Info().Int64("size", meta.Size).Dur("took", time.Since(start)).Msg("Model downloaded")
			c.remember(path, meta)
		}
		return nil, err
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Asset{}, res.Err
		}
		return assetFor(meta, path), nil
	case <-ctx.Done():
		return Asset{}, ctx.Err()
	}
}

func assetFor(meta *Metadata, path string) Asset {
	return Asset{Name: meta.Name, Path: path, SHA256: meta.SHA256, Size: meta.Size}
}

func (c *Cache) metadata(ctx context.Context, name string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := c.base.JoinPath("models", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("metadata request: HTTP %d", resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if meta.Name == "" {
		meta.Name = name
	}
	meta.SHA256 = strings.ToLower(meta.SHA256)
	if len(meta.SHA256) != sha256.Size*2 || meta.Size < 0 || meta.URL == "" {
		return nil, fmt.Errorf("metadata for %s is incomplete", name)
	}
	return &meta, nil
}

// download streams the asset into a temp file next to path, verifies it and
// renames it into place.
func (c *Cache) download(ctx context.Context, meta *Metadata, path string) error {
	src, err := c.base.Parse(meta.URL)
	if err != nil {
		return fmt.Errorf("asset url %q: %w", meta.URL, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(c.cfg.Dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	// One extra byte is enough to notice an oversized body.
	n, err := io.Copy(io.MultiWriter(tmp, h), io.LimitReader(resp.Body, meta.Size+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write asset: %w", err)
	}

	if n != meta.Size {
		return fmt.Errorf("%w: size %d, want %d", ErrIntegrity, n, meta.Size)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != meta.SHA256 {
		return fmt.Errorf("%w: sha256 %s, want %s", ErrIntegrity, sum, meta.SHA256)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit asset: %w", err)
	}
	committed = true
	return nil
}

// verified reports whether the file at path matches meta, hashing it only
// when no fresh stamp vouches for it.
func (c *Cache) verified(path string, meta *Metadata) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if s, ok := c.stamps.Get(path); ok && s.size == info.Size() && s.modTime.Equal(info.ModTime()) {
		return s.sha256 == meta.SHA256
	}
	if ok, err := verifyFile(path, meta); err != nil || !ok {
		return false
	}
	c.stamps.Add(path, fileStamp{sha256: meta.SHA256, size: info.Size(), modTime: info.ModTime()})
	return true
}

func (c *Cache) remember(path string, meta *Metadata) {
	if info, err := os.Stat(path); err == nil {
		c.stamps.Add(path, fileStamp{sha256: meta.SHA256, size: info.Size(), modTime: info.ModTime()})
	}
}

// verifyFile reports whether the file at path matches meta.
func verifyFile(path string, meta *Metadata) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from a validated name
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() != meta.Size {
		return false, nil
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == meta.SHA256, nil
}
