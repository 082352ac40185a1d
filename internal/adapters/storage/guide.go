package storage

import (
	"context"
	"fmt"
	"time"
)

// GuideConfig names the guide object and how long its links stay valid.
type GuideConfig interface {
	GetLeadMagnetBucket() string
	GetLeadMagnetObject() string
	GetLeadMagnetURLTTL() time.Duration
}

// GuideLinks hands out presigned links to the relocation guide.
type GuideLinks struct {
	store  ObjectStore
	bucket string
	object string
	ttl    time.Duration
}

func NewGuideLinks(store ObjectStore, cfg GuideConfig) *GuideLinks {
	return &GuideLinks{
		store:  store,
		bucket: cfg.GetLeadMagnetBucket(),
		object: cfg.GetLeadMagnetObject(),
		ttl:    cfg.GetLeadMagnetURLTTL(),
	}
}

// GuideURL returns a fresh presigned link to the guide.
func (g *GuideLinks) GuideURL(ctx context.Context) (string, error) {
	if g.object == "" {
		return "", fmt.Errorf("lead magnet object is not configured")
	}
	link, err := g.store.GenerateDownloadURL(ctx, g.bucket, g.object, g.ttl)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// Check verifies the guide object is present. Used at startup so a missing
// upload shows up in the logs rather than as silent empty links.
func (g *GuideLinks) Check(ctx context.Context) error {
	if err := g.store.EnsureBucketExists(ctx, g.bucket); err != nil {
		return err
	}
	ok, err := g.store.ObjectExists(ctx, g.bucket, g.object)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lead magnet object %s/%s not found", g.bucket, g.object)
	}
	return nil
}
