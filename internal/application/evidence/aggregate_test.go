package evidence

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

func TestAggregate_Empty(t *testing.T) {
	b := Aggregate(nil, "")
	assert.True(t, b.IsEmpty())

	b = Aggregate(nil, "note from the field")
	assert.False(t, b.IsEmpty())
	assert.Equal(t, "note from the field", b.AdjusterNotes)
}

func TestAggregate_PreservesDocumentOrder(t *testing.T) {
	docs := []*domain.Document{
		{Kind: domain.KindDocument, Status: domain.StatusCompleted, ExtractedText: "first"},
		{Kind: domain.KindDocument, Status: domain.StatusCompleted, ExtractedText: "second"},
		{Kind: domain.KindDocument, Status: domain.StatusCompleted, ExtractedText: "third"},
	}

	b := Aggregate(docs, "")
	if diff := cmp.Diff([]string{"first", "second", "third"}, b.Texts); diff != "" {
		t.Fatalf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_SkippedVideoBecomesTextItem(t *testing.T) {
	docs := []*domain.Document{
		{Kind: domain.KindVideo, Status: domain.StatusSkippedVideo, OriginalFilename: "crash.mp4"},
	}

	b := Aggregate(docs, "")
	assert.Equal(t, []string{"Video file crash.mp4 was submitted but not analyzed."}, b.Texts)
	assert.Empty(t, b.Videos)
}

func TestAggregate_FailedDocumentDiagnosticIsVisible(t *testing.T) {
	docs := []*domain.Document{
		{
			Kind:          domain.KindDocument,
			Status:        domain.StatusFailed,
			ExtractedText: "Error extracting text from file: claims/c1/file_a. Reason: boom",
		},
		{Kind: domain.KindDocument, Status: domain.StatusCompleted, ExtractedText: "police report"},
	}

	b := Aggregate(docs, "")
	assert.Len(t, b.Texts, 2)
	assert.Contains(t, b.Texts[0], "Error extracting text from file")
}

func TestAggregate_ImageCollectsAllSubResults(t *testing.T) {
	docs := []*domain.Document{
		{
			Kind:             domain.KindImage,
			Status:           domain.StatusCompleted,
			OriginalFilename: "damage.jpg",
			ExtractedText:    "REG 1234",
			Forensics:        &domain.ForensicsResult{DetectedObjects: []string{"Car"}},
			ReverseSearch:    &domain.ReverseSearchResult{MatchFound: true, URLs: []string{"https://x"}},
			Metadata:         &domain.ImageMetadata{CameraModel: "Pixel 9"},
		},
	}

	b := Aggregate(docs, "")
	assert.Equal(t, []string{"REG 1234"}, b.Texts)
	assert.Len(t, b.Images, 1)
	assert.Equal(t, "damage.jpg", b.Images[0].Filename)
	assert.Equal(t, []string{"Car"}, b.Images[0].Forensics.DetectedObjects)
	assert.True(t, b.Images[0].ReverseSearch.MatchFound)
	assert.Equal(t, "Pixel 9", b.Images[0].Metadata.CameraModel)
}

func TestAggregate_CompletedVideo(t *testing.T) {
	docs := []*domain.Document{
		{
			Kind:             domain.KindVideo,
			Status:           domain.StatusCompleted,
			OriginalFilename: "dashcam.mp4",
			Video:            &domain.VideoResult{DetectedObjects: []string{"Person Running (91.20%)"}},
		},
	}

	b := Aggregate(docs, "")
	assert.Len(t, b.Videos, 1)
	assert.Equal(t, "dashcam.mp4", b.Videos[0].Filename)
	assert.Equal(t, []string{"Person Running (91.20%)"}, b.Videos[0].DetectedObjects)
}
