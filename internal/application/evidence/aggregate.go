package evidence

import (
	"fmt"

	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

// ImageEvidence is the synthesis-ready view of one analyzed image.
type ImageEvidence struct {
	Filename      string
	Forensics     domain.ForensicsResult
	ReverseSearch domain.ReverseSearchResult
	Metadata      domain.ImageMetadata
}

// VideoEvidence is the synthesis-ready view of one analyzed video.
type VideoEvidence struct {
	Filename        string
	DetectedObjects []string
}

// Bundle is the aggregated view of all a claim's usable evidence. It is
// derived fresh from terminal documents on every run and never persisted.
type Bundle struct {
	Texts         []string
	Images        []ImageEvidence
	Videos        []VideoEvidence
	AdjusterNotes string
}

// IsEmpty reports whether there is nothing worth sending to the model.
func (b Bundle) IsEmpty() bool {
	return len(b.Texts) == 0 && len(b.Images) == 0 && len(b.Videos) == 0 && b.AdjusterNotes == ""
}

// Aggregate partitions documents into text, image and video evidence,
// preserving the order documents were listed so prompt generation is
// reproducible for a fixed document set. Pure transform, no side effects.
//
// Skipped videos and failed extractions contribute synthetic text items
// so their absence from the real evidence stays visible to the model and
// the reviewer.
func Aggregate(docs []*domain.Document, adjusterNotes string) Bundle {
	b := Bundle{AdjusterNotes: adjusterNotes}
	for _, d := range docs {
		switch {
		case d.Status == domain.StatusSkippedVideo:
			b.Texts = append(b.Texts, fmt.Sprintf("Video file %s was submitted but not analyzed.", d.OriginalFilename))
			continue
		case d.Kind == domain.KindVideo && d.Video != nil:
			b.Videos = append(b.Videos, VideoEvidence{
				Filename:        d.OriginalFilename,
				DetectedObjects: d.Video.DetectedObjects,
			})
		}
		if d.ExtractedText != "" {
			b.Texts = append(b.Texts, d.ExtractedText)
		}
		if d.Forensics != nil {
			img := ImageEvidence{Filename: d.OriginalFilename, Forensics: *d.Forensics}
			if d.ReverseSearch != nil {
				img.ReverseSearch = *d.ReverseSearch
			}
			if d.Metadata != nil {
				img.Metadata = *d.Metadata
			}
			b.Images = append(b.Images, img)
		}
	}
	return b
}
