package prompt

import (
	"fmt"
	"strings"

	"github.com/veritasai/veritas-claims/internal/application/evidence"
)

// Fixed placeholder sentences. Every section renders something, so the
// prompt is well formed even for an all-empty bundle.
const (
	noNotesPlaceholder     = "No additional notes were provided."
	noTextPlaceholder      = "No text was extracted from documents."
	noImagesPlaceholder    = "No images were submitted."
	noVideosPlaceholder    = "No videos were submitted."
	documentTextSeparator  = "\n\n--- DOCUMENT TEXT ---\n\n"
	notAvailable           = "Not Available"
	reverseSearchNoMatches = "Not performed or no matches found."
)

// Render builds the synthesis instruction for the generative model from
// an evidence bundle. Pure string construction: identical bundles always
// render byte-identical prompts.
func Render(b evidence.Bundle) string {
	var sb strings.Builder

	sb.WriteString("You are Veritas AI, a world-class forensic investigator for insurance claims. ")
	sb.WriteString("Your mission is to uncover fraud by meticulously analyzing and cross-referencing all available intelligence. ")
	sb.WriteString("Do not summarize; investigate.\n\n")

	sb.WriteString("**CASE FILE INTELLIGENCE:**\n\n")

	sb.WriteString("**1. FIELD NOTES (from the Human Adjuster):**\n")
	if b.AdjusterNotes != "" {
		sb.WriteString("--- ADJUSTER'S NOTES ---\n")
		sb.WriteString(b.AdjusterNotes)
	} else {
		sb.WriteString(noNotesPlaceholder)
	}
	sb.WriteString("\n\n")

	sb.WriteString("**2. SUBMITTED DOCUMENTS (The Official Story):**\n")
	if len(b.Texts) > 0 {
		sb.WriteString(strings.Join(b.Texts, documentTextSeparator))
	} else {
		sb.WriteString(noTextPlaceholder)
	}
	sb.WriteString("\n\n")

	sb.WriteString("**3. FORENSIC IMAGE REPORTS (The Ground Truth):**\n")
	if len(b.Images) > 0 {
		for _, img := range b.Images {
			writeImageReport(&sb, img)
		}
	} else {
		sb.WriteString(noImagesPlaceholder)
	}
	sb.WriteString("\n\n")

	sb.WriteString("**4. VIDEO EVIDENCE (Surveillance and Recordings):**\n")
	if len(b.Videos) > 0 {
		for _, v := range b.Videos {
			fmt.Fprintf(&sb, "\n--- VIDEO ANALYSIS REPORT FOR: %s ---\n", v.Filename)
			fmt.Fprintf(&sb, "Detected Objects & Activities: %s\n", joinOr(v.DetectedObjects, "None"))
		}
	} else {
		sb.WriteString(noVideosPlaceholder)
	}
	sb.WriteString("\n\n")

	sb.WriteString(forensicProtocol)
	sb.WriteString(finalReportInstruction)

	return sb.String()
}

func writeImageReport(sb *strings.Builder, img evidence.ImageEvidence) {
	fmt.Fprintf(sb, "\n--- FORENSIC REPORT FOR IMAGE: %s ---\n", img.Filename)

	sb.WriteString("**Image Metadata (EXIF Data):**\n")
	fmt.Fprintf(sb, "  - Original Date/Time Taken: %s\n", valueOr(img.Metadata.DateTimeOriginal, notAvailable))
	fmt.Fprintf(sb, "  - Camera/Device Model: %s\n", valueOr(img.Metadata.CameraModel, notAvailable))
	fmt.Fprintf(sb, "  - GPS Information: %s\n", valueOr(img.Metadata.GPSInfo, notAvailable))
	fmt.Fprintf(sb, "  - Metadata Warnings: %s\n", joinOr(img.Metadata.Warnings, "None"))

	sb.WriteString("\n**Content Analysis (What's in the picture):**\n")
	fmt.Fprintf(sb, "  - Detected Objects: %s\n", strings.Join(img.Forensics.DetectedObjects, ", "))
	fmt.Fprintf(sb, "  - Detected Text: %s\n", strings.Join(img.Forensics.DetectedText, ", "))
	sb.WriteString("  - Content Alerts:\n")
	for _, alert := range img.Forensics.ForensicAlerts {
		fmt.Fprintf(sb, "- %s\n", alert)
	}

	sb.WriteString("\n**Online Footprint Analysis (Where the picture has been):**\n")
	sb.WriteString("  - Reverse Image Search Results: ")
	if img.ReverseSearch.MatchFound {
		sb.WriteString("CRITICAL ALERT: Image found online at:\n")
		for _, u := range img.ReverseSearch.URLs {
			fmt.Fprintf(sb, "- %s\n", u)
		}
	} else {
		sb.WriteString(reverseSearchNoMatches)
		sb.WriteString("\n")
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

const forensicProtocol = `**YOUR FORENSIC ANALYSIS PROTOCOL:**
You must perform the following checks and synthesize your findings.
- **Timeline Contradiction:** Does the "Date/Time Taken" from the image metadata contradict the date of the incident reported in the documents? A photo taken *before* the reported accident is a major red flag.
- **Device Anomaly:** Is the camera model consistent across all photos? Do different photos claim to be from different high-end phones and cheap cameras? This could indicate a stitched-together claim.
- **Content vs. Narrative Conflict:** Does the text detected in the images (e.g., a license plate, a street sign) contradict the information in the police report or claimant statement?
- **Video Contradiction:** Do the objects or activities detected in the video (e.g., 'Person Running', 'No Vehicle Damage') contradict the claimant's statement?
- **Geospatial Conflict:** If GPS data is available, does it match the location of the incident described in the documents?
- **Digital Tampering:** Do the metadata warnings (e.g., "No EXIF data") or content alerts suggest the image was downloaded, screenshotted, or edited?
- **Fraudulent Reuse:** Is there a "CRITICAL ALERT" from a reverse image search? This is the most severe indicator of fraud.

`

const finalReportInstruction = `**FINAL REPORT:**
Based on your forensic protocol, provide your conclusions ONLY in the following strict JSON format:
{
  "summary": "A brief, factual summary of the claim incident.",
  "fraud_risk_score": <integer from 0-100, where a score over 85 requires multiple severe red flags>,
  "key_risk_factors": [
      "A list of the most critical pieces of evidence pointing to fraud. Be specific and reference your protocol. Example: 'Timeline Contradiction: Photo IMG_2345.jpg was taken on 2025-09-25, three days before the reported accident on 2025-09-28.'",
      "Another factor. Example: 'Fraudulent Reuse: Image damage_front.jpg was found on a car auction website from 2024.'"
  ]
}`
