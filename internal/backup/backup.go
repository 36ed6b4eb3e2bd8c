// Package backup writes consistent snapshots of the chorechart database,
// optionally encrypted and uploaded to S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	filePrefix   = "chorechart-"
	plainSuffix  = ".db"
	cipherSuffix = ".db.enc"
	stampLayout  = "20060102T150405Z"
)

// Uploader is the slice of the S3 client a backup needs.
type Uploader interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Enabled reports whether enough is configured to upload.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// NewS3Client builds a path-style client, suitable for MinIO and friends.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

type Options struct {
	Dir        string
	Passphrase string
	Retention  int
	Bucket     string
	Prefix     string
	Uploader   Uploader
}

// Result describes one written snapshot.
type Result struct {
	Path     string
	Size     int64
	Uploaded string
	Pruned   []string
}

type Manager struct {
	db     *sql.DB
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

func NewManager(db *sql.DB, opts Options, logger *slog.Logger) *Manager {
	return &Manager{db: db, opts: opts, now: time.Now, logger: logger.With("component", "backup")}
}

// Run snapshots the database with VACUUM INTO, encrypts it when a
// passphrase is set, uploads it when an uploader is set and prunes local
// snapshots beyond the retention count.
func (m *Manager) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(m.opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	stamp := m.now().UTC().Format(stampLayout)
	plainPath := filepath.Join(m.opts.Dir, filePrefix+stamp+plainSuffix)
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, plainPath); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}

	path := plainPath
	if m.opts.Passphrase != "" {
		encPath, err := m.encrypt(plainPath)
		if err != nil {
			return nil, err
		}
		path = encPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	res := &Result{Path: path, Size: info.Size()}

	if m.opts.Uploader != nil {
		key, err := m.upload(ctx, path)
		if err != nil {
			return res, err
		}
		res.Uploaded = key
	}

	if res.Pruned, err = m.prune(); err != nil {
		return res, err
	}
	m.logger.Info("backup complete", "path", res.Path, "bytes", res.Size, "uploaded", res.Uploaded, "pruned", len(res.Pruned))
	return res, nil
}

func (m *Manager) encrypt(plainPath string) (string, error) {
	defer os.Remove(plainPath)

	data, err := os.ReadFile(plainPath)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Encrypt(data, m.opts.Passphrase)
	if err != nil {
		return "", err
	}
	encPath := strings.TrimSuffix(plainPath, plainSuffix) + cipherSuffix
	if err := os.WriteFile(encPath, sealed, 0o600); err != nil {
		return "", fmt.Errorf("write encrypted snapshot: %w", err)
	}
	return encPath, nil
}

func (m *Manager) upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	key := filepath.Base(path)
	if m.opts.Prefix != "" {
		key = strings.TrimSuffix(m.opts.Prefix, "/") + "/" + key
	}
	_, err = m.opts.Uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return key, nil
}

// prune keeps the newest Retention snapshots. Zero keeps everything.
func (m *Manager) prune() ([]string, error) {
	if m.opts.Retention <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(m.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, filePrefix) &&
			(strings.HasSuffix(name, plainSuffix) || strings.HasSuffix(name, cipherSuffix)) {
			names = append(names, name)
		}
	}
	if len(names) <= m.opts.Retention {
		return nil, nil
	}
	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var pruned []string
	for _, name := range names[m.opts.Retention:] {
		path := filepath.Join(m.opts.Dir, name)
		if err := os.Remove(path); err != nil {
			return pruned, fmt.Errorf("remove old backup: %w", err)
		}
		pruned = append(pruned, path)
	}
	return pruned, nil
}
