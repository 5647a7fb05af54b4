package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	gcs "cloud.google.com/go/storage"
	"video-translate-go/internal/logger"
	"video-translate-go/internal/types"
)

type objectAttrs struct {
	ContentType string
	Metadata    map[string]string
}

// objectStore is the slice of the GCS client the uploader needs.
type objectStore interface {
	Put(ctx context.Context, bucket, object string, attrs objectAttrs, r io.Reader) error
	Delete(ctx context.Context, bucket, object string) error
}

type gcsStore struct {
	client *gcs.Client
}

func (s *gcsStore) Put(ctx context.Context, bucket, object string, attrs objectAttrs, r io.Reader) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = attrs.ContentType
	w.Metadata = attrs.Metadata
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

func (s *gcsStore) Delete(ctx context.Context, bucket, object string) error {
	err := s.client.Bucket(bucket).Object(object).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// Uploader places audio artifacts in a bucket under a per-run key.
type Uploader struct {
	bucket string
	prefix string
	store  objectStore
	log    *logger.Logger
}

func NewUploader(client *gcs.Client, bucket, prefix string, log *logger.Logger) *Uploader {
	return newUploader(&gcsStore{client: client}, bucket, prefix, log)
}

func newUploader(store objectStore, bucket, prefix string, log *logger.Logger) *Uploader {
	return &Uploader{bucket: bucket, prefix: prefix, store: store, log: log.Component("storage")}
}

// ObjectKey names the object for a run. Keys never collide across runs.
func (u *Uploader) ObjectKey(run types.Run) string {
	prefix := u.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + run.ID.String() + ".flac"
}

func (u *Uploader) Upload(ctx context.Context, run types.Run, a types.AudioArtifact) (types.StorageReference, error) {
	log := u.log.WithRun(run)

	f, err := os.Open(a.Path)
	if err != nil {
		return types.StorageReference{}, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	ref := types.StorageReference{Bucket: u.bucket, Object: u.ObjectKey(run), Digest: a.Digest}
	attrs := objectAttrs{
		ContentType: "audio/flac",
		Metadata: map[string]string{
			"run_id": run.ID.String(),
			"blake3": a.Digest,
			"source": run.InputName,
		},
	}
	if err := u.store.Put(ctx, ref.Bucket, ref.Object, attrs, f); err != nil {
		log.WithField("object", ref.URI()).WithError(err).Error("upload failed")
		return types.StorageReference{}, fmt.Errorf("upload %s: %w", ref.URI(), err)
	}

	log.WithField("object", ref.URI()).Info("audio uploaded")
	return ref, nil
}

// Remove deletes an uploaded object. Deleting a missing object succeeds.
func (u *Uploader) Remove(ctx context.Context, ref types.StorageReference) error {
	if err := u.store.Delete(ctx, ref.Bucket, ref.Object); err != nil {
		return fmt.Errorf("delete %s: %w", ref.URI(), err)
	}
	return nil
}
