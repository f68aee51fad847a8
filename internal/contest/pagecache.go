package contest

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"net/url"
	"time"

	"yacontest/internal/components/chrono"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_page_cache_get = "page-cache.get"
	report_page_cache_set = "page-cache.set"
)

var ErrPageNotCached = errors.New("page not cached")

type cachedPage struct {
	Contents  []byte
	ExpiresAt int64
}

// PageCache keeps raw page bodies in badger, keyed by normalized url.
type PageCache struct {
	db       *badger.DB
	lifetime time.Duration
	clock    chrono.API
}

func NewPageCache(db *badger.DB, lifetime time.Duration, clock chrono.API) *PageCache {
	if clock == nil {
		clock = chrono.StandardImpl{}
	}
	return &PageCache{db: db, lifetime: lifetime, clock: clock}
}

// OpenPageCache opens (or creates) the badger directory at dir.
func OpenPageCache(dir string, lifetime time.Duration) (*PageCache, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return NewPageCache(db, lifetime, nil), nil
}

func (c *PageCache) Close() error {
	return c.db.Close()
}

func pageCacheKey(locator string) (string, error) {
	full, err := url.Parse(locator)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		full,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return "page:" + normalized, nil
}

// Get returns the cached body of locator, ErrPageNotCached on a miss or
// when the entry has expired.
func (c *PageCache) Get(ctx context.Context, locator string) ([]byte, error) {
	_, span := tracer.Start(ctx, "page-cache:Get")
	defer span.End()

	key, err := pageCacheKey(locator)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	var serialized []byte
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrPageNotCached
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}

	var cached cachedPage
	err = gob.NewDecoder(bytes.NewReader(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}

	if c.clock.Now().Unix() >= cached.ExpiresAt {
		err = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
		if err != nil {
			span.RecordError(err)
		}
		span.AddEvent("expired")
		return nil, ErrPageNotCached
	}

	span.SetAttributes(attribute.Int("content_length", len(cached.Contents)))
	return cached.Contents, nil
}

func (c *PageCache) Set(ctx context.Context, locator string, contents []byte) error {
	_, span := tracer.Start(ctx, "page-cache:Set")
	defer span.End()

	key, err := pageCacheKey(locator)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	var serialized bytes.Buffer
	err = gob.NewEncoder(&serialized).Encode(cachedPage{
		Contents:  contents,
		ExpiresAt: c.clock.Now().Add(c.lifetime).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
	}
	return err
}
