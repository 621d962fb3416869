package storage

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/Conceptual-Machines/magda-composer/internal/config"
)

const wavContentType = "audio/wav"

// Object describes a stored render
type Object struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	Size     int    `json:"size"`
}

// Store persists rendered WAV files
type Store interface {
	Put(ctx context.Context, key string, data []byte) (*Object, error)
	Name() string
}

// New picks a store from config: S3 when a bucket is configured, a local
// directory when RENDER_DIR is set, otherwise nil (renders are only returned inline).
func New(cfg *config.Config) (Store, error) {
	switch {
	case cfg.RenderBucket != "":
		store, err := NewS3Store(cfg.AWSRegion, cfg.RenderBucket)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 store: %w", err)
		}
		log.Printf("💾 Render storage: s3://%s (%s)", cfg.RenderBucket, cfg.AWSRegion)
		return store, nil
	case cfg.RenderDir != "":
		store, err := NewLocalStore(cfg.RenderDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create local store: %w", err)
		}
		log.Printf("💾 Render storage: %s", cfg.RenderDir)
		return store, nil
	default:
		log.Printf("💾 Render storage: DISABLED (set RENDER_BUCKET or RENDER_DIR)")
		return nil, nil
	}
}

// RenderKey builds the object key for a render ID
func RenderKey(id string) string {
	return path.Join("renders", id+".wav")
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
