package evidence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritasai/veritas-claims/internal/domain/analysis"
	domain "github.com/veritasai/veritas-claims/internal/domain/documents"
)

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Extract(ctx context.Context, fileKey string) (string, error) {
	return f.text, f.err
}

type fakeForensics struct {
	result domain.ForensicsResult
	err    error
}

func (f fakeForensics) DetectObjectsAndText(ctx context.Context, fileKey string) (domain.ForensicsResult, error) {
	return f.result, f.err
}

type fakeSearch struct {
	result domain.ReverseSearchResult
	err    error
}

func (f fakeSearch) Search(ctx context.Context, publicURL string) (domain.ReverseSearchResult, error) {
	return f.result, f.err
}

type fakeMeta struct {
	meta domain.ImageMetadata
}

func (f fakeMeta) Read(data []byte) domain.ImageMetadata { return f.meta }

type fakeVideo struct {
	jobID  string
	result domain.VideoResult
	err    error
}

func (f fakeVideo) StartJob(ctx context.Context, fileKey string) (string, error) {
	return f.jobID, f.err
}

func (f fakeVideo) JobResult(ctx context.Context, jobID string) (domain.VideoResult, error) {
	return f.result, f.err
}

type fakeBlobStore struct {
	objects map[string][]byte
	getErr  error
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	return data, nil
}

func (f *fakeBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeBlobStore) PresignUpload(ctx context.Context, key string) (string, map[string]string, error) {
	return "https://store.local/upload", map[string]string{"key": key}, nil
}

func (f *fakeBlobStore) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://store.local/" + key, nil
}

func TestExtract_Document(t *testing.T) {
	e := &Extractor{Text: fakeText{text: "police report text"}}
	doc := &domain.Document{Kind: domain.KindDocument, FileKey: "claims/c1/file_a"}

	status, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status)
	assert.Equal(t, "police report text", doc.ExtractedText)
}

func TestExtract_DocumentFailure(t *testing.T) {
	e := &Extractor{Text: fakeText{err: errors.New("corrupted pdf")}}
	doc := &domain.Document{Kind: domain.KindDocument, FileKey: "claims/c1/file_a"}

	status, err := e.Extract(context.Background(), doc)
	assert.Equal(t, domain.StatusFailed, status)

	var xerr *analysis.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, "claims/c1/file_a", xerr.FileKey)
}

func TestExtract_ImageSubAnalysisFailureIsContained(t *testing.T) {
	e := &Extractor{
		Text:      fakeText{err: errors.New("no text")},
		Forensics: fakeForensics{err: errors.New("vision down")},
		Search:    fakeSearch{result: domain.ReverseSearchResult{SearchStatus: "completed"}},
		Meta:      fakeMeta{meta: domain.ImageMetadata{CameraModel: "Pixel 9"}},
		Store:     &fakeBlobStore{objects: map[string][]byte{"claims/c1/a.jpg": []byte("img")}},
	}
	doc := &domain.Document{Kind: domain.KindImage, FileKey: "claims/c1/a.jpg"}

	status, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status)

	require.NotNil(t, doc.Forensics)
	require.Len(t, doc.Forensics.ForensicAlerts, 2)
	assert.Contains(t, doc.Forensics.ForensicAlerts[0], "Content analysis failed")
	assert.Contains(t, doc.Forensics.ForensicAlerts[1], "Text detection failed")
	assert.Equal(t, "Pixel 9", doc.Metadata.CameraModel)
	assert.Equal(t, "completed", doc.ReverseSearch.SearchStatus)
	assert.Empty(t, doc.ExtractedText)
}

func TestExtract_ImageTextDetectionFailureIsRecorded(t *testing.T) {
	e := &Extractor{
		Text:      fakeText{err: errors.New("ocr timeout")},
		Forensics: fakeForensics{result: domain.ForensicsResult{DetectedObjects: []string{"Car"}}},
		Meta:      fakeMeta{},
		Store:     &fakeBlobStore{objects: map[string][]byte{"claims/c1/a.jpg": []byte("img")}},
	}
	doc := &domain.Document{Kind: domain.KindImage, FileKey: "claims/c1/a.jpg"}

	status, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, status)

	assert.Empty(t, doc.ExtractedText)
	require.Len(t, doc.Forensics.ForensicAlerts, 1)
	assert.Contains(t, doc.Forensics.ForensicAlerts[0], "ocr timeout")
}

func TestExtract_ImageWithoutSearcher(t *testing.T) {
	e := &Extractor{
		Text:      fakeText{text: "REG 1234"},
		Forensics: fakeForensics{result: domain.ForensicsResult{DetectedObjects: []string{"Car"}}},
		Meta:      fakeMeta{},
		Store:     &fakeBlobStore{objects: map[string][]byte{"claims/c1/a.jpg": []byte("img")}},
	}
	doc := &domain.Document{Kind: domain.KindImage, FileKey: "claims/c1/a.jpg"}

	_, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "API keys not configured.", doc.ReverseSearch.SearchStatus)
	assert.Equal(t, "REG 1234", doc.ExtractedText)
}

func TestExtract_ImageMetadataReadFailure(t *testing.T) {
	e := &Extractor{
		Text:      fakeText{},
		Forensics: fakeForensics{},
		Meta:      fakeMeta{},
		Store:     &fakeBlobStore{getErr: errors.New("object gone")},
	}
	doc := &domain.Document{Kind: domain.KindImage, FileKey: "claims/c1/a.jpg"}

	_, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Error extracting metadata."}, doc.Metadata.Warnings)
}

func TestExtract_VideoWithoutAnalyzer(t *testing.T) {
	e := &Extractor{}
	doc := &domain.Document{Kind: domain.KindVideo, FileKey: "claims/c1/a.mp4"}

	status, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkippedVideo, status)
}

func TestExtract_VideoSubmitsJob(t *testing.T) {
	e := &Extractor{Video: fakeVideo{jobID: "job-99"}}
	doc := &domain.Document{Kind: domain.KindVideo, FileKey: "claims/c1/a.mp4"}

	status, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, status)
	assert.Equal(t, "job-99", doc.VideoJobID)
}

func TestExtract_VideoJobSubmissionFailure(t *testing.T) {
	e := &Extractor{Video: fakeVideo{err: errors.New("backend down")}}
	doc := &domain.Document{Kind: domain.KindVideo, FileKey: "claims/c1/a.mp4"}

	status, err := e.Extract(context.Background(), doc)
	assert.Equal(t, domain.StatusFailed, status)
	assert.Error(t, err)
}
