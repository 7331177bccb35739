package evidence

import (
	"context"
	"fmt"

	"github.com/veritasai/veritas-claims/internal/domain/analysis"
	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

// Extractor converts one stored file into normalized evidence on its
// Document. Image sub-analyses each contain their own failure as a
// diagnostic string inside the result; only whole-file extraction
// failures propagate, and those are still contained per file by the
// orchestrator.
type Extractor struct {
	Text      analysis.TextExtractor
	Forensics analysis.ForensicsAnalyzer
	Video     analysis.VideoAnalyzer // optional; nil means videos are skipped
	Search    analysis.ReverseImageSearcher
	Meta      analysis.MetadataReader
	Store     analysis.BlobStore
}

// Extract populates doc's evidence fields and returns the terminal status
// the document should be recorded with. A video handed to a configured
// analyzer stays in processing until the job-result webhook lands.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (domain.Status, error) {
	switch doc.Kind {
	case domain.KindImage:
		e.extractImage(ctx, doc)
		return domain.StatusCompleted, nil
	case domain.KindVideo:
		return e.extractVideo(ctx, doc)
	default:
		text, err := e.Text.Extract(ctx, doc.FileKey)
		if err != nil {
			return domain.StatusFailed, &analysis.ExtractionError{FileKey: doc.FileKey, Err: err}
		}
		doc.ExtractedText = text
		return domain.StatusCompleted, nil
	}
}

// extractImage runs the three independent image analyses plus text
// detection. Each catches its own error; a bad sub-step degrades its own
// result rather than aborting the file.
func (e *Extractor) extractImage(ctx context.Context, doc *domain.Document) {
	forensics, err := e.Forensics.DetectObjectsAndText(ctx, doc.FileKey)
	if err != nil {
		forensics = domain.ForensicsResult{
			ForensicAlerts: []string{fmt.Sprintf("Content analysis failed: %v", err)},
		}
	}
	doc.Forensics = &forensics

	doc.Metadata = e.readMetadata(ctx, doc.FileKey)
	doc.ReverseSearch = e.reverseSearch(ctx, doc.FileKey)

	// Photographed documents carry text too (receipts, police reports).
	text, err := e.Text.Extract(ctx, doc.FileKey)
	if err != nil {
		doc.Forensics.ForensicAlerts = append(doc.Forensics.ForensicAlerts,
			fmt.Sprintf("Text detection failed: %v", err))
		return
	}
	doc.ExtractedText = text
}

func (e *Extractor) readMetadata(ctx context.Context, fileKey string) *domain.ImageMetadata {
	data, err := e.Store.Get(ctx, fileKey)
	if err != nil {
		return &domain.ImageMetadata{Warnings: []string{"Error extracting metadata."}}
	}
	meta := e.Meta.Read(data)
	return &meta
}

func (e *Extractor) reverseSearch(ctx context.Context, fileKey string) *domain.ReverseSearchResult {
	if e.Search == nil {
		return &domain.ReverseSearchResult{SearchStatus: "API keys not configured."}
	}
	publicURL, err := e.Store.PresignGet(ctx, fileKey)
	if err != nil {
		return &domain.ReverseSearchResult{SearchStatus: fmt.Sprintf("Could not publish image for search: %v", err)}
	}
	res, err := e.Search.Search(ctx, publicURL)
	if err != nil {
		return &domain.ReverseSearchResult{SearchStatus: fmt.Sprintf("API Error: %v", err)}
	}
	return &res
}

// extractVideo never blocks on video processing: with an analyzer it
// submits an async job and leaves the document in processing, otherwise
// the document is marked skipped.
func (e *Extractor) extractVideo(ctx context.Context, doc *domain.Document) (domain.Status, error) {
	if e.Video == nil {
		return domain.StatusSkippedVideo, nil
	}
	jobID, err := e.Video.StartJob(ctx, doc.FileKey)
	if err != nil {
		return domain.StatusFailed, &analysis.ExtractionError{FileKey: doc.FileKey, Err: err}
	}
	doc.VideoJobID = jobID
	return domain.StatusProcessing, nil
}
