package httpserver

import (
    "database/sql"
    "errors"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"

    appclaims "github.com/veritasai/veritas-claims/internal/application/claims"
    appinvestigate "github.com/veritasai/veritas-claims/internal/application/investigate"
    "github.com/veritasai/veritas-claims/internal/domain/analysis"
    domain "github.com/veritasai/veritas-claims/internal/domain/claims"
    "github.com/veritasai/veritas-claims/internal/middleware"
)

type Router struct {
	claimsSvc      *appclaims.Service
	investigateSvc *appinvestigate.Service
}

func NewRouter(claimsSvc *appclaims.Service, investigateSvc *appinvestigate.Service) http.Handler {
	r := &Router{claimsSvc: claimsSvc, investigateSvc: investigateSvc}
	mux := chi.NewRouter()

    mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/claims", r.wrap(r.handleCreateClaim))
		rt.Get("/claims/latest", r.wrap(r.handleLatest))
		rt.Get("/claims/{id}", r.wrap(r.handleGet))
		rt.Get("/claims/{id}/errors", r.wrap(r.handleListErrors))
		rt.Post("/claims/{id}/trigger-analysis", r.wrap(r.handleTriggerAnalysis))
		rt.Post("/claims/{id}/start-conversation", r.wrap(r.handleStartConversation))
		rt.Post("/claims/{id}/query", r.wrap(r.handleQuery))
		rt.Post("/webhooks/video-result", r.wrap(r.handleVideoResult))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
    return func(w http.ResponseWriter, req *http.Request) {
        if err := h(w, req); err != nil {
            if errors.Is(err, sql.ErrNoRows) || errors.Is(err, analysis.ErrNotFound) {
                http.Error(w, "not found", http.StatusNotFound)
                return
            }
            if errors.Is(err, domain.ErrClaimClosed) {
                http.Error(w, "claim no longer accepts analysis", http.StatusConflict)
                return
            }
            if errors.Is(err, analysis.ErrMissingParentTurn) {
                http.Error(w, "previous_message_id is required", http.StatusBadRequest)
                return
            }
            if errors.Is(err, analysis.ErrNotConfigured) {
                http.Error(w, "service not configured", http.StatusServiceUnavailable)
                return
            }
            http.Error(w, err.Error(), http.StatusInternalServerError)
        }
    }
}

func adjusterFrom(req *http.Request) (string, error) {
	adjuster := middleware.GetAdjusterFromContext(req.Context())
	if adjuster == "" {
		return "", fmt.Errorf("adjuster not resolved from request")
	}
	return adjuster, nil
}

func claimIDFrom(req *http.Request) (domain.ClaimID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateClaimID(id); err != nil {
		return "", err
	}
	return domain.ClaimID(id), nil
}

// POST /v1/claims
// Body: {"file_count": 3, "additional_info": "..."}
// Returns the claim id plus one pre-authorized upload per expected file.
func (r *Router) handleCreateClaim(w http.ResponseWriter, req *http.Request) error {
	adjuster, err := adjusterFrom(req)
	if err != nil {
		return err
	}

	var body struct {
		FileCount      int    `json:"file_count"`
		AdditionalInfo string `json:"additional_info"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := middleware.ValidateFileCount(body.FileCount); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	cmd := appclaims.CreateClaimCommand{
		FileCount:      body.FileCount,
		AdditionalInfo: middleware.SanitizeString(body.AdditionalInfo),
	}
	res, err := r.claimsSvc.CreateClaim(req.Context(), adjuster, cmd)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(res)
}

// POST /v1/claims/{id}/trigger-analysis
func (r *Router) handleTriggerAnalysis(w http.ResponseWriter, req *http.Request) error {
	adjuster, err := adjusterFrom(req)
	if err != nil {
		return err
	}
	id, err := claimIDFrom(req)
	if err != nil {
		return err
	}

	// 🚀 Pipeline jalan di background, biar jalan sampai selesai.
	if err := r.claimsSvc.TriggerAnalysis(req.Context(), adjuster, id); err != nil {
		return err
	}

	// 🔙 langsung balikin respons ke client
	resp := map[string]any{
		"status":   "accepted",
		"claim_id": string(id),
		"message":  "analysis started in background",
		"queuedAt": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(resp)
}

// GET /v1/claims/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	adjuster, err := adjusterFrom(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.claimsSvc.Latest(req.Context(), adjuster, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/claims/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	adjuster, err := adjusterFrom(req)
	if err != nil {
		return err
	}
	id, err := claimIDFrom(req)
	if err != nil {
		return err
	}

	claim, err := r.claimsSvc.Get(req.Context(), adjuster, id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(claim)
}

// GET /v1/claims/{id}/errors?limit=20
func (r *Router) handleListErrors(w http.ResponseWriter, req *http.Request) error {
	adjuster, err := adjusterFrom(req)
	if err != nil {
		return err
	}
	id, err := claimIDFrom(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.claimsSvc.ListErrors(req.Context(), adjuster, id, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// POST /v1/claims/{id}/start-conversation
func (r *Router) handleStartConversation(w http.ResponseWriter, req *http.Request) error {
	adjuster, err := adjusterFrom(req)
	if err != nil {
		return err
	}
	id, err := claimIDFrom(req)
	if err != nil {
		return err
	}

	session, err := r.investigateSvc.StartSession(req.Context(), adjuster, id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(session)
}

// POST /v1/claims/{id}/query
// Body: {"conversation_id": "...", "previous_message_id": "...", "question": "..."}
func (r *Router) handleQuery(w http.ResponseWriter, req *http.Request) error {
	adjuster, err := adjusterFrom(req)
	if err != nil {
		return err
	}
	id, err := claimIDFrom(req)
	if err != nil {
		return err
	}

	var body struct {
		ConversationID    string `json:"conversation_id"`
		PreviousMessageID string `json:"previous_message_id"`
		Question          string `json:"question"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.Question == "" {
		return fmt.Errorf("question is required")
	}

	answer, err := r.investigateSvc.Ask(req.Context(), adjuster, id,
		body.ConversationID, body.PreviousMessageID, middleware.SanitizeString(body.Question))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(answer)
}

// POST /v1/webhooks/video-result
// Body: {"job_id": "...", "status": "SUCCEEDED" | "FAILED"}
// Posted by the video analysis backend when an async job finishes.
func (r *Router) handleVideoResult(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if body.JobID == "" {
		return fmt.Errorf("job_id is required")
	}

	if err := r.claimsSvc.CompleteVideoJob(req.Context(), body.JobID, body.Status == "SUCCEEDED"); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]string{"status": "processed"})
}
