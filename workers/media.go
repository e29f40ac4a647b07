package workers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/earny00/steam-hidden-gem-hunter/models"
	"github.com/earny00/steam-hidden-gem-hunter/storage"
)

// Uploader is the seam to S3-compatible storage.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
}

// MediaWorker mirrors candidate artwork (header image, thumbnail) into
// durable storage so the snapshot stays renderable after CDN churn.
// It works off today's snapshots only and remembers what it already
// mirrored within the process.
type MediaWorker struct {
	cache    *storage.SnapshotStore
	regions  []string
	uploader Uploader
	client   *http.Client
	now      func() time.Time

	mirrored map[string]struct{}
	trigger  chan struct{}
}

func NewMediaWorker(cache *storage.SnapshotStore, regions []string, uploader Uploader) *MediaWorker {
	return &MediaWorker{
		cache:    cache,
		regions:  regions,
		uploader: uploader,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		now:      time.Now,
		mirrored: make(map[string]struct{}),
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate pass outside the regular interval.
func (w *MediaWorker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *MediaWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("media worker stopping")
			return
		case <-ticker.C:
			w.mirrorAll(ctx)
		case <-w.trigger:
			w.mirrorAll(ctx)
		}
	}
}

func (w *MediaWorker) mirrorAll(ctx context.Context) {
	today := w.now().Format(storage.DateLayout)

	for _, region := range w.regions {
		snap := w.cache.Load(region, today)
		if snap == nil {
			continue
		}
		w.mirrorSnapshot(ctx, snap)
	}
}

func (w *MediaWorker) mirrorSnapshot(ctx context.Context, snap *models.Snapshot) {
	var mirrored, failed int
	for _, cand := range snap.Games {
		for _, url := range []string{cand.HeaderImageURL, cand.ThumbnailURL} {
			if url == "" {
				continue
			}
			if _, done := w.mirrored[url]; done {
				continue
			}

			if err := w.mirror(ctx, url); err != nil {
				log.Printf("media worker: %s: %v", url, err)
				failed++
				continue
			}

			w.mirrored[url] = struct{}{}
			mirrored++

			time.Sleep(200 * time.Millisecond)
		}

		if ctx.Err() != nil {
			return
		}
	}

	if mirrored > 0 || failed > 0 {
		log.Printf("media worker: region %s: mirrored %d, failed %d", snap.Region, mirrored, failed)
	}
}

// mirror downloads one image and uploads it under a content-hash key, so
// identical artwork from different scans dedups in the bucket.
func (w *MediaWorker) mirror(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "image/*,*/*")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20*1024*1024))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	hash := sha256.Sum256(data)
	digest := hex.EncodeToString(hash[:])
	key := fmt.Sprintf("artwork/%s/%s%s", digest[:2], digest, guessExtension(url, resp.Header.Get("Content-Type")))

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if err := w.uploader.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func guessExtension(url, contentType string) string {
	ext := strings.ToLower(path.Ext(url))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}

	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// NoOpUploader drains uploads without storing them; used when no bucket
// is configured.
type NoOpUploader struct{}

func NewNoOpUploader() *NoOpUploader {
	return &NoOpUploader{}
}

func (u *NoOpUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	io.Copy(io.Discard, data)
	return nil
}
