// Package ingest implements the write path: one atomic accept-image
// operation that turns raw photo bytes into a durable file + embedding
// + metadata record, or into nothing at all.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/moodgram/moodgram/plugin/face"
	"github.com/moodgram/moodgram/storage"
	"github.com/moodgram/moodgram/store"
)

// ErrRepositoryFailure marks metadata read/write errors during ingest.
// Distinct from storage.ErrStorageFailure and the extractor's detection
// errors so each failure mode is independently testable.
var ErrRepositoryFailure = errors.New("repository failure")

// defaultMaxConcurrentExtractions bounds the CPU/latency-heavy
// extractor step so it cannot starve concurrent ingests and queries.
const defaultMaxConcurrentExtractions = 4

// Options tweaks pipeline behavior.
type Options struct {
	// MaxConcurrentExtractions bounds parallel extractor calls.
	MaxConcurrentExtractions int64
}

// Pipeline orchestrates the content store, the embedding extractor, and
// the metadata repository into one atomic ingest operation.
type Pipeline struct {
	store     *store.Store
	content   *storage.LocalStore
	extractor face.Extractor

	// extractSem serializes access to the extractor worker pool.
	extractSem *semaphore.Weighted
}

// NewPipeline creates an ingest pipeline.
func NewPipeline(st *store.Store, content *storage.LocalStore, extractor face.Extractor, opts *Options) *Pipeline {
	maxExtractions := int64(defaultMaxConcurrentExtractions)
	if opts != nil && opts.MaxConcurrentExtractions > 0 {
		maxExtractions = opts.MaxConcurrentExtractions
	}
	return &Pipeline{
		store:      st,
		content:    content,
		extractor:  extractor,
		extractSem: semaphore.NewWeighted(maxExtractions),
	}
}

// Ingest accepts one photo: stage the bytes, extract the face
// embedding, commit the file, and write the metadata row. On success
// exactly one new file and one new row exist, linked by the returned
// id. On any failure neither persists.
//
// createdAt backdates the record for bulk imports; nil means now.
func (p *Pipeline) Ingest(ctx context.Context, image []byte, emotion store.Emotion, ownerID string, createdAt *time.Time) (string, error) {
	if !emotion.IsValid() {
		return "", errors.Wrapf(store.ErrInvalidEmotionLabel, "%q", emotion)
	}

	if _, err := p.store.GetOrCreateUser(ctx, ownerID); err != nil {
		return "", errors.Wrapf(ErrRepositoryFailure, "failed to resolve owner %s: %v", ownerID, err)
	}

	id := uuid.NewString()

	handle, err := p.content.Stage(ctx, image)
	if err != nil {
		return "", err
	}

	vector, err := p.extract(ctx, image)
	if err != nil {
		// Detection failures are legitimate outcomes; the staged copy
		// must still be reclaimed before reporting them.
		p.discardStaged(ctx, handle, id)
		return "", err
	}

	filePath, err := p.content.Commit(ctx, handle, id)
	if err != nil {
		p.discardStaged(ctx, handle, id)
		return "", err
	}

	createdTs := time.Now().Unix()
	if createdAt != nil {
		createdTs = createdAt.Unix()
	}

	if _, err := p.store.CreateImage(ctx, &store.Image{
		ID:        id,
		UserID:    ownerID,
		Emotion:   emotion,
		FilePath:  filePath,
		Embedding: vector,
		CreatedTs: createdTs,
	}); err != nil {
		// The file is already committed; remove it so no orphan
		// outlives the failed row.
		if removeErr := p.content.Remove(ctx, id); removeErr != nil {
			slog.Error("failed to clean up committed image after metadata failure",
				"id", id, "error", removeErr)
		}
		if errors.Is(err, store.ErrInvalidEmotionLabel) {
			return "", err
		}
		return "", errors.Wrapf(ErrRepositoryFailure, "failed to create image record: %v", err)
	}

	return id, nil
}

func (p *Pipeline) extract(ctx context.Context, image []byte) ([]float32, error) {
	if err := p.extractSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.extractSem.Release(1)

	return p.extractor.Extract(ctx, image)
}

func (p *Pipeline) discardStaged(ctx context.Context, handle storage.Handle, id string) {
	if err := p.content.Discard(ctx, handle); err != nil {
		slog.Error("failed to discard staged image", "id", id, "error", err)
	}
}
