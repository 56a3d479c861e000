// Package media adapts remote object stores holding catalog images.
//
// Every adapter reports per-reference outcomes in a DeleteResult instead of
// returning an error, so callers branch on the result.
package media

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/pkg/config"
)

// DeleteResult is the outcome of a batch deletion.
type DeleteResult struct {
	Deleted int
	Failed  []string
	// Err is the last transport or provider error seen, for logging only.
	Err error
}

// OK reports whether every reference was removed. Partial progress counts as failure.
func (r DeleteResult) OK() bool { return len(r.Failed) == 0 }

// Store is the provider-agnostic interface every media adapter implements.
type Store interface {
	// DeleteMany removes the referenced objects. Empty input is a no-op success.
	DeleteMany(ctx context.Context, refs []string) DeleteResult
}

// New builds the adapter selected by cfg.Provider.
func New(ctx context.Context, cfg config.MediaConfig, log *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case config.MediaProviderS3:
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.S3Bucket, log), nil
	case config.MediaProviderCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, log), nil
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}

// unique drops empty and repeated references, keeping first-seen order.
func unique(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func chunk(refs []string, size int) [][]string {
	var out [][]string
	for len(refs) > size {
		out = append(out, refs[:size])
		refs = refs[size:]
	}
	if len(refs) > 0 {
		out = append(out, refs)
	}
	return out
}
