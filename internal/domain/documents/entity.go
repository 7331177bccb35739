package documents

import (
	"path"
	"strings"
	"time"
)

// ID tipe untuk Document
type DocumentID string

// Kind enum, inferred from the uploaded filename
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

// Status enum. Every file starts in processing; the rest are terminal.
type Status string

const (
	StatusProcessing   Status = "processing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusSkippedVideo Status = "skipped_video"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s != StatusProcessing
}

// ForensicsResult is what the vision service saw inside an image.
// Sub-analysis failures land in Alerts instead of aborting extraction.
type ForensicsResult struct {
	DetectedObjects []string `json:"detected_objects"`
	DetectedText    []string `json:"detected_text"`
	ForensicAlerts  []string `json:"forensic_alerts"`
}

// ReverseSearchResult records where the image has been seen online.
type ReverseSearchResult struct {
	MatchFound   bool     `json:"match_found"`
	URLs         []string `json:"urls"`
	SearchStatus string   `json:"search_status"`
}

// ImageMetadata holds the EXIF fields we cross-reference against the
// claim narrative. Missing or unreadable EXIF goes into Warnings.
type ImageMetadata struct {
	DateTimeOriginal string   `json:"date_time_original,omitempty"`
	CameraModel      string   `json:"camera_model,omitempty"`
	GPSInfo          string   `json:"gps_info,omitempty"`
	Warnings         []string `json:"warnings"`
}

// VideoResult holds high-confidence labels from an async video job.
type VideoResult struct {
	DetectedObjects []string `json:"detected_objects"`
}

// Document: one uploaded file of a claim, with its own processing status
// and kind-specific evidence. Evidence fields are set monotonically; they
// are only replaced wholesale when the claim is re-analyzed.
type Document struct {
	ID               DocumentID           `json:"id"`
	ClaimID          string               `json:"claim_id"`
	FileKey          string               `json:"file_key"`
	OriginalFilename string               `json:"original_filename"`
	Kind             Kind                 `json:"kind"`
	Status           Status               `json:"status"`
	ExtractedText    string               `json:"extracted_text,omitempty"`
	Forensics        *ForensicsResult     `json:"forensics,omitempty"`
	ReverseSearch    *ReverseSearchResult `json:"reverse_search,omitempty"`
	Metadata         *ImageMetadata       `json:"image_metadata,omitempty"`
	Video            *VideoResult         `json:"video_results,omitempty"`
	VideoJobID       string               `json:"video_job_id,omitempty"`
	UploadedAt       time.Time            `json:"uploaded_at"`
}

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".avi": true}
)

// KindForFilename infers the document kind from the file extension.
// Anything that is not a known image or video is treated as a document
// and goes through text extraction.
func KindForFilename(name string) Kind {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	default:
		return KindDocument
	}
}
