package claims

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/veritasai/veritas-claims/internal/application"
	appdocs "github.com/veritasai/veritas-claims/internal/application/documents"
	"github.com/veritasai/veritas-claims/internal/application/evidence"
	"github.com/veritasai/veritas-claims/internal/domain/analysis"
	domain "github.com/veritasai/veritas-claims/internal/domain/claims"
	"github.com/veritasai/veritas-claims/internal/domain/claimerrors"
	docdomain "github.com/veritasai/veritas-claims/internal/domain/documents"
	"github.com/veritasai/veritas-claims/internal/middleware"
)

// Fixed report texts. The fallback pair is the sentinel consumers key on.
const (
	noContentSummary   = "No content found in claim for analysis."
	fallbackSummary    = "AI synthesis failed due to a processing error. Please review manually."
	fallbackRiskFactor = "Critical AI model processing error."
)

const defaultMaxParallel = 4

// PromptFunc renders an evidence bundle into the synthesis instruction.
type PromptFunc func(evidence.Bundle) string

// Service implements use-cases untuk Claim: creation with pre-authorized
// uploads, the analysis pipeline, and report retrieval.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Repo      domain.Repository
	Tracker   *appdocs.Tracker
	Extractor *evidence.Extractor
	Errors    claimerrors.Repository
	Store     analysis.BlobStore
	Model     analysis.ModelClient
	Prompt    PromptFunc
	Clock     application.Clock

	// MaxParallel bounds the per-file extraction fan-out.
	MaxParallel int
}

//
// ==== USE CASES ====
//

// CreateClaimCommand carries the adjuster's intake form.
type CreateClaimCommand struct {
	FileCount      int
	AdditionalInfo string
}

// UploadAuthorization is one pre-authorized browser upload.
type UploadAuthorization struct {
	FileKey string            `json:"file_key"`
	URL     string            `json:"url"`
	Fields  map[string]string `json:"fields"`
}

type CreateClaimResult struct {
	ClaimID string                `json:"claim_id"`
	Uploads []UploadAuthorization `json:"upload_urls"`
}

// CreateClaim mints the claim record plus one pre-authorized upload per
// expected file. The minted keys are stored on the claim in order; the
// pipeline later reads exactly this list instead of re-listing the store.
func (s *Service) CreateClaim(ctx context.Context, adjusterID string, cmd CreateClaimCommand) (CreateClaimResult, error) {
	if cmd.FileCount <= 0 {
		return CreateClaimResult{}, fmt.Errorf("file_count must be positive")
	}

	now := s.Clock.Now()
	claimID := uuid.New().String()

	uploads := make([]UploadAuthorization, 0, cmd.FileCount)
	keys := make([]string, 0, cmd.FileCount)
	for i := 0; i < cmd.FileCount; i++ {
		key := fmt.Sprintf("claims/%s/file_%s", claimID, strings.ReplaceAll(uuid.New().String(), "-", ""))
		url, fields, err := s.Store.PresignUpload(ctx, key)
		if err != nil {
			return CreateClaimResult{}, fmt.Errorf("generating upload authorization: %w", err)
		}
		keys = append(keys, key)
		uploads = append(uploads, UploadAuthorization{FileKey: key, URL: url, Fields: fields})
	}

	claim := &domain.Claim{
		ID:            domain.ClaimID(claimID),
		AdjusterID:    adjusterID,
		Status:        domain.StatusUploadInProgress,
		AdjusterNotes: cmd.AdditionalInfo,
		FileKeys:      keys,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Save(ctx, claim); err != nil {
		return CreateClaimResult{}, err
	}
	return CreateClaimResult{ClaimID: claimID, Uploads: uploads}, nil
}

// Get returns one claim scoped to its adjuster.
func (s *Service) Get(ctx context.Context, adjuster string, id domain.ClaimID) (*domain.Claim, error) {
	return s.Repo.Get(ctx, adjuster, id)
}

// Latest returns the adjuster's most recent claims.
func (s *Service) Latest(ctx context.Context, adjuster string, limit int) ([]*domain.Claim, error) {
	return s.Repo.Latest(ctx, adjuster, limit)
}

// ListErrors returns the audited pipeline errors for a claim.
func (s *Service) ListErrors(ctx context.Context, adjuster string, id domain.ClaimID, limit int) ([]*claimerrors.AnalysisError, error) {
	if _, err := s.Repo.Get(ctx, adjuster, id); err != nil {
		return nil, err
	}
	if s.Errors == nil {
		return []*claimerrors.AnalysisError{}, nil
	}
	return s.Errors.ListByClaim(ctx, string(id), limit)
}

// TriggerAnalysis validates access and dispatches the pipeline to the
// background. The caller gets an accepted response immediately; the run
// finishes even if the client goes away.
func (s *Service) TriggerAnalysis(ctx context.Context, adjuster string, id domain.ClaimID) error {
	claim, err := s.Repo.Get(ctx, adjuster, id)
	if err != nil {
		return err
	}
	// The pipeline commits ready_for_review; an escalated claim can no
	// longer advance there and stays with its reviewer.
	if !claim.Status.CanAdvanceTo(domain.StatusReadyForReview) {
		return fmt.Errorf("claim %s: %w", id, domain.ErrClaimClosed)
	}
	go s.AnalyzeUntilDone(claim)
	return nil
}

// AnalyzeUntilDone runs the full pipeline with context.Background() so a
// dropped connection never cancels an in-flight analysis.
func (s *Service) AnalyzeUntilDone(claim *domain.Claim) {
	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	defer middleware.DecrementAnalysesRunning()

	if err := s.Analyze(context.Background(), claim); err != nil {
		middleware.IncrementAnalysesFailed()
		log.Printf("background analysis error for claim=%s: %v", claim.ID, err)
	}
}

// Analyze is the per-claim state machine: mark analyzing, clear prior
// documents, fan extraction out over the claim's files, aggregate,
// synthesize, coerce, commit. Per-file failures degrade into diagnostic
// evidence; synthesis failures degrade into the fixed fallback report.
// The claim always reaches ready_for_review.
func (s *Service) Analyze(ctx context.Context, claim *domain.Claim) error {
	claimID := string(claim.ID)

	if err := s.Repo.UpdateStatus(ctx, claim.ID, domain.StatusAnalyzing); err != nil {
		return fmt.Errorf("marking claim analyzing: %w", err)
	}

	// Re-analysis starts clean: prior documents are superseded wholesale.
	if err := s.Tracker.ClearForClaim(ctx, claimID); err != nil {
		return fmt.Errorf("clearing prior documents: %w", err)
	}

	fileKeys := claim.FileKeys
	if len(fileKeys) == 0 {
		// Claims created before keys were stored on the record; fall back
		// to listing the upload prefix. A listing failure degrades to the
		// empty-claim report, but it must leave an audit trail.
		listed, err := s.Store.List(ctx, "claims/"+claimID+"/")
		if err != nil {
			s.audit(ctx, claimID, "", "listing", err)
		} else {
			fileKeys = listed
		}
	}

	s.extractAll(ctx, claimID, fileKeys)

	docs, err := s.Tracker.ListForAggregation(ctx, claimID)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	bundle := evidence.Aggregate(docs, claim.AdjusterNotes)

	report := s.synthesize(ctx, claimID, bundle)

	if err := s.Repo.UpdateReport(ctx, claim.ID, report, domain.StatusReadyForReview); err != nil {
		return fmt.Errorf("committing report: %w", err)
	}

	s.writeClaimContext(ctx, claimID, report, bundle)
	return nil
}

// extractAll fans extraction out over the claim's files. One bad file
// never aborts the run: every failure is recorded on its own document and
// audited, and the group error is always nil.
func (s *Service) extractAll(ctx context.Context, claimID string, fileKeys []string) {
	limit := s.MaxParallel
	if limit <= 0 {
		limit = defaultMaxParallel
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, key := range fileKeys {
		key := key
		g.Go(func() error {
			s.extractOne(gctx, claimID, key)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) extractOne(ctx context.Context, claimID, fileKey string) {
	doc, err := s.Tracker.StartProcessing(ctx, claimID, fileKey)
	if err != nil {
		s.audit(ctx, claimID, fileKey, "extraction", err)
		return
	}

	status, err := s.Extractor.Extract(ctx, doc)
	switch {
	case err != nil:
		s.audit(ctx, claimID, fileKey, "extraction", err)
		if rerr := s.Tracker.RecordFailure(ctx, doc, err); rerr != nil {
			log.Printf("recording failure for doc=%s: %v", doc.ID, rerr)
		}
	case status == docdomain.StatusProcessing:
		// Async video job submitted; the webhook finishes this document.
		if serr := s.Tracker.SaveProgress(ctx, doc); serr != nil {
			s.audit(ctx, claimID, fileKey, "extraction", serr)
		}
	default:
		if rerr := s.Tracker.RecordResult(ctx, doc, status); rerr != nil {
			s.audit(ctx, claimID, fileKey, "extraction", rerr)
		}
	}
}

// synthesize renders the prompt, invokes the model once, and coerces the
// raw response. Both the invocation and the parse are contained at this
// single boundary; any failure yields the fixed sentinel report.
func (s *Service) synthesize(ctx context.Context, claimID string, bundle evidence.Bundle) domain.RiskReport {
	if bundle.IsEmpty() {
		return domain.RiskReport{
			Summary:        noContentSummary,
			FraudRiskScore: 0,
			KeyRiskFactors: []string{},
		}
	}

	raw, err := s.Model.Complete(ctx, s.Prompt(bundle))
	if err != nil {
		s.audit(ctx, claimID, "", "synthesis", &analysis.SynthesisError{Stage: "invoke", Err: err})
		return fallbackReport()
	}

	report, err := ParseRiskReport(raw)
	if err != nil {
		s.audit(ctx, claimID, "", "synthesis", &analysis.SynthesisError{Stage: "parse", Err: err})
		return fallbackReport()
	}
	return report
}

// ParseRiskReport salvages the report object from free-form model output
// by taking the substring between the first '{' and the last '}'.
func ParseRiskReport(raw string) (domain.RiskReport, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return domain.RiskReport{}, fmt.Errorf("no JSON object found in model response")
	}

	var report domain.RiskReport
	if err := json.Unmarshal([]byte(raw[start:end+1]), &report); err != nil {
		return domain.RiskReport{}, fmt.Errorf("decoding model response: %w", err)
	}
	if report.KeyRiskFactors == nil {
		report.KeyRiskFactors = []string{}
	}
	return report, nil
}

func fallbackReport() domain.RiskReport {
	return domain.RiskReport{
		Summary:        fallbackSummary,
		FraudRiskScore: domain.FallbackScore,
		KeyRiskFactors: []string{fallbackRiskFactor},
	}
}

// ContextKey is where the rendered evidence context for a claim lives in
// the blob store; the conversational bridge attaches it as seed context.
func ContextKey(claimID string) string {
	return "claims_context/" + claimID + ".txt"
}

// writeClaimContext publishes the rendered case file for the
// conversational co-pilot. Best effort: a failed write degrades follow-up
// questions, not the report.
func (s *Service) writeClaimContext(ctx context.Context, claimID string, report domain.RiskReport, bundle evidence.Bundle) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CASE FILE FOR CLAIM %s\n\n", claimID)
	fmt.Fprintf(&sb, "Summary: %s\n", report.Summary)
	fmt.Fprintf(&sb, "Fraud Risk Score: %d\n", report.FraudRiskScore)
	sb.WriteString("Key Risk Factors:\n")
	for _, f := range report.KeyRiskFactors {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	if len(bundle.Texts) > 0 {
		sb.WriteString("\nEXTRACTED DOCUMENT TEXT:\n\n")
		sb.WriteString(strings.Join(bundle.Texts, "\n\n---\n\n"))
	}

	if err := s.Store.Put(ctx, ContextKey(claimID), []byte(sb.String()), "text/plain"); err != nil {
		log.Printf("writing claim context for claim=%s: %v", claimID, err)
	}
}

// CompleteVideoJob finishes the document attached to an async video
// analysis job. Called from the job-result webhook.
func (s *Service) CompleteVideoJob(ctx context.Context, jobID string, succeeded bool) error {
	doc, err := s.Tracker.FindByVideoJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !succeeded {
		s.audit(ctx, doc.ClaimID, doc.FileKey, "video", fmt.Errorf("video analysis job %s failed", jobID))
		return s.Tracker.RecordFailure(ctx, doc, fmt.Errorf("video analysis job failed"))
	}

	res, err := s.Extractor.Video.JobResult(ctx, jobID)
	if err != nil {
		s.audit(ctx, doc.ClaimID, doc.FileKey, "video", err)
		return s.Tracker.RecordFailure(ctx, doc, err)
	}
	doc.Video = &res
	return s.Tracker.RecordResult(ctx, doc, docdomain.StatusCompleted)
}

// audit persists a pipeline error entry. Auditing is never load-bearing;
// failures only get logged.
func (s *Service) audit(ctx context.Context, claimID, fileKey, phase string, cause error) {
	log.Printf("claim=%s phase=%s file=%s error: %v", claimID, phase, fileKey, cause)
	if s.Errors == nil {
		return
	}
	e := &claimerrors.AnalysisError{
		ClaimID:   claimID,
		FileKey:   fileKey,
		Phase:     phase,
		Message:   cause.Error(),
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Errors.Save(ctx, e); err != nil {
		log.Printf("saving analysis error for claim=%s: %v", claimID, err)
	}
}
