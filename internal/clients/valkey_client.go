package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/valkey-io/valkey-go"
)

const VALKEY_COLLECTION_PREFIX = "reviewflow:collected:"

// ValkeyCache keeps collected reviews for a while so repeated runs against
// the same source skip the scraping.
type ValkeyCache struct {
	Client valkey.Client
	cfg    config.ValkeyConfig
	mu     sync.Mutex
}

func NewValkeyCache(cfg config.ValkeyConfig) (*ValkeyCache, error) {
	client, err := connectValkey(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("[ValkeyClient] Successfully connected to valkey")
	return &ValkeyCache{Client: client, cfg: cfg}, nil
}

func connectValkey(cfg config.ValkeyConfig) (valkey.Client, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

func (vc *ValkeyCache) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")

	client, err := connectValkey(vc.cfg)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}
	vc.Client.Close()
	vc.Client = client
}

func (vc *ValkeyCache) Close() {
	vc.Client.Close()
}

// Get returns the cached records for key. A miss or any cache failure is
// reported as not found.
func (vc *ValkeyCache) Get(ctx context.Context, key string) ([]models.RawRecord, bool) {
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Get().Key(VALKEY_COLLECTION_PREFIX + key).Build()
	}, 3)
	raw, err := res.ToString()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[ValkeyClient] Cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	var records []models.RawRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		slog.Warn("[ValkeyClient] Discarding unreadable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}
	return records, true
}

func (vc *ValkeyCache) Set(ctx context.Context, key string, records []models.RawRecord, ttl time.Duration) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("[ValkeyClient] failed to encode records: %w", err)
	}

	seconds := max(int64(ttl/time.Second), 1)
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Set().Key(VALKEY_COLLECTION_PREFIX + key).Value(string(payload)).ExSeconds(seconds).Build()
	}, 3)
	if err := res.Error(); err != nil {
		return err
	}

	slog.Info("[ValkeyClient] Cached collected reviews",
		slog.String("key", key),
		slog.Int("records", len(records)))
	return nil
}

// DoWithRetry builds a fresh command for every attempt since valkey
// recycles commands once they are sent.
func (vc *ValkeyCache) DoWithRetry(ctx context.Context, build func(valkey.Client) valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		vc.mu.Lock()
		client := vc.Client
		vc.mu.Unlock()

		result = client.Do(ctx, build(client))
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		if isConnectionError(err) {
			vc.recreateClient()
		}
		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
