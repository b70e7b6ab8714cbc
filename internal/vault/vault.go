// Package vault stores screenshot bytes in a private bucket. Objects are
// addressed by an opaque handle; read access is only ever granted through
// short-lived signed URLs minted from that handle.
package vault

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	DefaultMaxBytes  = 10 * 1024 * 1024
	DefaultViewTTL   = 30 * time.Minute
	DefaultUploadTTL = time.Hour

	defaultContentType = "image/png"
	suffixAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"
)

var (
	ErrTooLarge      = errors.New("file exceeds upload limit")
	ErrEmpty         = errors.New("file name and data required")
	ErrInvalidHandle = errors.New("invalid blob handle")
	ErrNotConfigured = errors.New("blob storage not configured")
)

// Backend is the object store behind the vault.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// PresignGet returns a read-only URL for key valid for ttl. nonce must be
	// embedded so that each call yields a distinct URL.
	PresignGet(ctx context.Context, key string, ttl time.Duration, nonce string) (string, error)
	Ping(ctx context.Context) error
}

// Unconfigured is a backend for deployments without a bucket. Every call
// fails with ErrNotConfigured.
func Unconfigured() Backend { return unconfigured{} }

type unconfigured struct{}

func (unconfigured) Put(context.Context, string, []byte, string) error { return ErrNotConfigured }

func (unconfigured) PresignGet(context.Context, string, time.Duration, string) (string, error) {
	return "", ErrNotConfigured
}

func (unconfigured) Ping(context.Context) error { return ErrNotConfigured }

// Options tunes vault limits. Zero values take the defaults.
type Options struct {
	MaxBytes  int64
	ViewTTL   time.Duration
	UploadTTL time.Duration
}

// Vault uploads screenshots and mints signed URLs for them.
type Vault struct {
	backend   Backend
	maxBytes  int64
	viewTTL   time.Duration
	uploadTTL time.Duration
	now       func() time.Time
}

// New creates a vault over backend.
func New(backend Backend, opts Options) *Vault {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.ViewTTL <= 0 {
		opts.ViewTTL = DefaultViewTTL
	}
	if opts.UploadTTL <= 0 {
		opts.UploadTTL = DefaultUploadTTL
	}
	return &Vault{
		backend:   backend,
		maxBytes:  opts.MaxBytes,
		viewTTL:   opts.ViewTTL,
		uploadTTL: opts.UploadTTL,
		now:       time.Now,
	}
}

// Upload is the result of storing a screenshot.
type Upload struct {
	Handle string
	URL    string
}

// MaxBytes is the largest accepted payload.
func (v *Vault) MaxBytes() int64 { return v.maxBytes }

// Upload stores data under a fresh handle and returns the handle with a signed
// URL for immediate display. Oversized payloads are rejected before anything is
// written.
func (v *Vault) Upload(ctx context.Context, fileName string, data []byte, contentType string) (Upload, error) {
	if strings.TrimSpace(fileName) == "" || len(data) == 0 {
		return Upload{}, ErrEmpty
	}
	if int64(len(data)) > v.maxBytes {
		return Upload{}, ErrTooLarge
	}
	if contentType == "" {
		contentType = defaultContentType
	}

	handle, err := NewHandle(v.now(), fileName)
	if err != nil {
		return Upload{}, err
	}
	if err := v.backend.Put(ctx, handle, data, contentType); err != nil {
		return Upload{}, fmt.Errorf("vault: put %s: %w", handle, err)
	}

	url, err := v.sign(ctx, handle, v.uploadTTL)
	if err != nil {
		return Upload{}, err
	}
	return Upload{Handle: handle, URL: url}, nil
}

// ViewURL mints a new short-lived read URL for handle. Repeated calls return
// different URLs for the same object.
func (v *Vault) ViewURL(ctx context.Context, handle string) (string, error) {
	if strings.TrimSpace(handle) == "" {
		return "", ErrInvalidHandle
	}
	return v.sign(ctx, handle, v.viewTTL)
}

// Ping checks that the bucket is reachable.
func (v *Vault) Ping(ctx context.Context) error {
	return v.backend.Ping(ctx)
}

func (v *Vault) sign(ctx context.Context, handle string, ttl time.Duration) (string, error) {
	url, err := v.backend.PresignGet(ctx, handle, ttl, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("vault: sign %s: %w", handle, err)
	}
	return url, nil
}

// NewHandle builds a collision-resistant object key of the form
// <unix-ms>-<6 random chars>-<sanitized file name>.
func NewHandle(now time.Time, fileName string) (string, error) {
	suffix, err := randomSuffix(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), suffix, sanitizeFileName(fileName)), nil
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(path.Ext(name))
	base := slug.Make(strings.TrimSuffix(name, path.Ext(name)))
	if base == "" {
		base = "screenshot"
	}
	if ext = slug.Make(strings.TrimPrefix(ext, ".")); ext != "" {
		return base + "." + ext
	}
	return base
}

func randomSuffix(n int) (string, error) {
	limit := big.NewInt(int64(len(suffixAlphabet)))
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("vault: random suffix: %w", err)
		}
		b.WriteByte(suffixAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
