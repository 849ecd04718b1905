package web

import (
	"bytes"
	"net/http"

	"github.com/hpungsan/flowfocus/internal/ai"
	"github.com/hpungsan/flowfocus/internal/entity"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/ops"
)

// --- decks ---

// HandleListDecks handles GET /api/decks.
func (h *Handlers) HandleListDecks(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.ws.ListDecks(ops.DeckQuery{
		Search: r.URL.Query().Get("search"),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}))
}

// HandleCreateDeck handles POST /api/decks.
func (h *Handlers) HandleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var input ops.DeckInput
	if !decodeBody(w, r, &input) {
		return
	}
	deck, err := h.ws.CreateDeck(input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, deck)
}

// HandleGetDeck handles GET /api/decks/{id}.
func (h *Handlers) HandleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := h.ws.GetDeck(r.PathValue("id"))
	respond(w, deck, err)
}

// HandleUpdateDeck handles PATCH /api/decks/{id}.
func (h *Handlers) HandleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	var patch ops.DeckPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	deck, err := h.ws.UpdateDeck(r.PathValue("id"), patch)
	respond(w, deck, err)
}

// HandleDeleteDeck handles DELETE /api/decks/{id}.
func (h *Handlers) HandleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	respond(w, map[string]any{"deleted": true, "id": id}, h.ws.DeleteDeck(id))
}

// HandleAddCards handles POST /api/decks/{id}/cards with a list of cards.
func (h *Handlers) HandleAddCards(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Cards []ops.CardInput `json:"cards"`
	}{}
	if !decodeBody(w, r, &body) {
		return
	}
	deck, err := h.ws.AddCards(r.PathValue("id"), body.Cards)
	respond(w, deck, err)
}

// HandleUpdateCard handles PATCH /api/decks/{id}/cards/{card}.
func (h *Handlers) HandleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var patch ops.CardPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	card, err := h.ws.UpdateCard(r.PathValue("id"), r.PathValue("card"), patch)
	respond(w, card, err)
}

// HandleRemoveCard handles DELETE /api/decks/{id}/cards/{card}.
func (h *Handlers) HandleRemoveCard(w http.ResponseWriter, r *http.Request) {
	deck, err := h.ws.RemoveCard(r.PathValue("id"), r.PathValue("card"))
	respond(w, deck, err)
}

// --- study plans ---

// HandleListPlans handles GET /api/plans.
func (h *Handlers) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	renderJSON(w, http.StatusOK, h.ws.ListPlans(ops.PlanQuery{
		Search:  q.Get("search"),
		Subject: q.Get("subject"),
		Limit:   parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:  parseIntParam(r, "offset", 0),
	}))
}

// HandleCreatePlan handles POST /api/plans.
func (h *Handlers) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var input ops.PlanInput
	if !decodeBody(w, r, &input) {
		return
	}
	plan, err := h.ws.CreatePlan(input)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, plan)
}

// HandleGetPlan handles GET /api/plans/{id}.
func (h *Handlers) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.ws.GetPlan(r.PathValue("id"))
	respond(w, plan, err)
}

// HandleDeletePlan handles DELETE /api/plans/{id}.
func (h *Handlers) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	respond(w, map[string]any{"deleted": true, "id": id}, h.ws.DeletePlan(id))
}

// HandlePlanProgress handles GET /api/plans/{id}/progress.
func (h *Handlers) HandlePlanProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.ws.Progress(r.PathValue("id"))
	respond(w, progress, err)
}

// HandleTogglePlanTask handles POST /api/plans/{id}/tasks/{task}/toggle.
func (h *Handlers) HandleTogglePlanTask(w http.ResponseWriter, r *http.Request) {
	plan, err := h.ws.TogglePlanTask(r.PathValue("id"), r.PathValue("task"))
	respond(w, plan, err)
}

// HandleExportPlans handles GET /api/plans/export: every plan as a dated
// JSON download.
func (h *Handlers) HandleExportPlans(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := h.ws.ExportPlans(&buf); err != nil {
		renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	setAttachment(w, ops.PlansExportFilename(h.ws.Now()))
	_, _ = w.Write(buf.Bytes())
}

// --- AI and transcripts ---

type studyPlanRequest struct {
	entity.StudyPlanInput
	Save bool `json:"save,omitempty"`
}

// HandleGenerateStudyPlan handles POST /api/ai/study-plan. With "save" the
// generated plan is stored and returned with its id.
func (h *Handlers) HandleGenerateStudyPlan(w http.ResponseWriter, r *http.Request) {
	var req studyPlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, err := h.ai.GenerateStudyPlan(r.Context(), req.StudyPlanInput)
	if err != nil || !req.Save {
		respond(w, out, err)
		return
	}
	plan, err := h.ws.CreatePlan(ops.PlanInput{
		Title:     out.Title,
		Goal:      out.Goal,
		Tasks:     out.Tasks,
		UserInput: req.StudyPlanInput,
		StartDate: req.StartDate,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, plan)
}

// HandleSummarize handles POST /api/ai/summary.
func (h *Handlers) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	var input ai.SummaryInput
	if !decodeBody(w, r, &input) {
		return
	}
	out, err := h.ai.Summarize(r.Context(), input)
	respond(w, out, err)
}

type flashcardRequest struct {
	ai.FlashcardInput
	DeckID   string `json:"deckId,omitempty"`
	DeckName string `json:"deckName,omitempty"`
}

// HandleGenerateFlashcards handles POST /api/ai/flashcards. Cards are added
// to deckId, or to a new deck named deckName; with neither they are only
// returned.
func (h *Handlers) HandleGenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	var req flashcardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DeckID != "" && req.DeckName != "" {
		renderError(w, errors.NewInvalidRequest("deckId and deckName are mutually exclusive"))
		return
	}
	out, err := h.ai.GenerateFlashcards(r.Context(), req.FlashcardInput)
	if err != nil {
		renderError(w, err)
		return
	}

	cards := make([]ops.CardInput, len(out.Cards))
	for i, c := range out.Cards {
		cards[i] = ops.CardInput{Question: c.Question, Answer: c.Answer}
	}
	switch {
	case req.DeckID != "":
		deck, err := h.ws.AddCards(req.DeckID, cards)
		respond(w, deck, err)
	case req.DeckName != "":
		deck, err := h.ws.CreateDeck(ops.DeckInput{Name: req.DeckName, Description: req.Topic, Cards: cards})
		if err != nil {
			renderError(w, err)
			return
		}
		renderJSON(w, http.StatusCreated, deck)
	default:
		renderJSON(w, http.StatusOK, out)
	}
}

// HandleSummarizeVideo handles POST /api/ai/video-summary.
func (h *Handlers) HandleSummarizeVideo(w http.ResponseWriter, r *http.Request) {
	var input ai.VideoSummaryInput
	if !decodeBody(w, r, &input) {
		return
	}
	out, err := h.ai.SummarizeVideo(r.Context(), input)
	respond(w, out, err)
}

// HandleTranscript handles GET /api/transcript?url=...
func (h *Handlers) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	if h.transcripts == nil {
		renderError(w, errors.NewInvalidRequest("video transcripts are not configured"))
		return
	}
	tr, err := h.transcripts.Fetch(r.Context(), r.URL.Query().Get("url"))
	respond(w, tr, err)
}
