package analysis

import (
	"context"

	"github.com/veritasai/veritas-claims/internal/domain/documents"
)

// Capability ports for the external services the pipeline consumes.
// Vendors stay behind these so the orchestrator can be tested with fakes.

// BlobStore port (penyimpanan evidence files)
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	// PresignUpload returns a pre-authorized browser upload: target URL
	// plus the form fields the client must post alongside the file.
	PresignUpload(ctx context.Context, key string) (string, map[string]string, error)
	// PresignGet returns a short-lived public URL for the object, used to
	// hand the image to the reverse-search service.
	PresignGet(ctx context.Context, key string) (string, error)
}

// TextExtractor pulls verbatim text out of a stored file. Implementations
// may be synchronous or job-based with bounded polling.
type TextExtractor interface {
	Extract(ctx context.Context, fileKey string) (string, error)
}

// ForensicsAnalyzer detects objects and text lines inside an image.
type ForensicsAnalyzer interface {
	DetectObjectsAndText(ctx context.Context, fileKey string) (documents.ForensicsResult, error)
}

// VideoAnalyzer submits asynchronous video detection jobs. Results come
// back out of band via the job-result webhook.
type VideoAnalyzer interface {
	StartJob(ctx context.Context, fileKey string) (jobID string, err error)
	JobResult(ctx context.Context, jobID string) (documents.VideoResult, error)
}

// ReverseImageSearcher looks an image up on the public web.
type ReverseImageSearcher interface {
	Search(ctx context.Context, publicURL string) (documents.ReverseSearchResult, error)
}

// MetadataReader extracts EXIF fields from raw image bytes.
type MetadataReader interface {
	Read(data []byte) documents.ImageMetadata
}

// ModelClient is the single-turn generative model. The response is raw
// text; coercion into a structured report is the caller's problem.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ConversationService keeps multi-turn state for the investigation
// co-pilot. Every follow-up must carry the previous turn id or the
// service loses the thread.
type ConversationService interface {
	StartChat(ctx context.Context, seedContext string) (sessionID, reply, turnID string, err error)
	Chat(ctx context.Context, sessionID, parentTurnID, message string) (reply, turnID string, err error)
}
