package cache

import (
	"context"
	"time"
)

// PageCache caches raw scraped page bodies so repeated ingestion of the same
// URL does not hit the network. A nil PageCache means fetch-through.
type PageCache interface {
	GetPage(ctx context.Context, url string) (body string, hit bool, err error)
	SetPage(ctx context.Context, url, body string, ttl time.Duration) error
}
