package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"relationship-notes-service/internal/assist"
	"relationship-notes-service/internal/events"
	"relationship-notes-service/internal/interaction"
	"relationship-notes-service/internal/models"
	"relationship-notes-service/internal/session"
	"relationship-notes-service/internal/store"
	"relationship-notes-service/internal/transcript"
)

// Handler carries the collaborators shared by all HTTP endpoints.
type Handler struct {
	store     *store.Store
	sessions  *session.Manager
	generator assist.Generator
	templates *assist.TemplateManager
	publisher *events.Publisher
}

func NewHandler(st *store.Store, sessions *session.Manager, generator assist.Generator, templates *assist.TemplateManager, publisher *events.Publisher) *Handler {
	return &Handler{
		store:     st,
		sessions:  sessions,
		generator: generator,
		templates: templates,
		publisher: publisher,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store failures onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	log.Error().Err(err).Msg("Store operation failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

// --- auth ---

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	token, err := h.sessions.SignIn(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		h.sessions.SignOut(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- contacts ---

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.ListContacts(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if c.FirstName == "" || c.LastName == "" {
		writeError(w, http.StatusBadRequest, "firstName and lastName are required")
		return
	}

	created, err := h.store.CreateContact(r.Context(), c)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// contactWithInteractions is the detail payload: the contact plus its
// interaction history, newest first.
type contactWithInteractions struct {
	models.Contact
	Interactions []models.Interaction `json:"interactions"`
}

func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.store.GetContact(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	ins, err := h.store.ListInteractions(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if ins == nil {
		ins = []models.Interaction{}
	}
	writeJSON(w, http.StatusOK, contactWithInteractions{Contact: c, Interactions: ins})
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c.ID = chi.URLParam(r, "id")

	updated, err := h.store.UpdateContact(r.Context(), c)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- interactions ---

type interactionRequest struct {
	ContactID        string `json:"contactId"`
	Date             string `json:"date"`
	Type             string `json:"type"`
	Notes            string `json:"notes"`
	ReminderSet      bool   `json:"reminderSet"`
	NextFollowUpDate string `json:"nextFollowUpDate"`
}

func (h *Handler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	contactID := r.URL.Query().Get("contactId")
	if contactID == "" {
		writeError(w, http.StatusBadRequest, "contactId is required")
		return
	}

	ins, err := h.store.ListInteractions(r.Context(), contactID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if ins == nil {
		ins = []models.Interaction{}
	}
	writeJSON(w, http.StatusOK, ins)
}

// CreateInteraction runs the request through the same builder the
// capture engine uses, so the field invariants hold on both paths.
func (h *Handler) CreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ContactID == "" {
		writeError(w, http.StatusBadRequest, "contactId is required")
		return
	}

	buf := transcript.New()
	buf.SetManual(req.Notes)
	builder := interaction.NewBuilder(h.store, buf)

	saved, err := builder.Submit(r.Context(), req.ContactID, interaction.FormState{
		Date:             req.Date,
		Type:             req.Type,
		ReminderSet:      req.ReminderSet,
		NextFollowUpDate: req.NextFollowUpDate,
	})
	if err != nil {
		var verr *interaction.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": verr.Message,
				"field": verr.Field,
			})
			return
		}
		writeStoreError(w, err)
		return
	}

	h.publishForInteraction(r.Context(), saved)
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) publishForInteraction(ctx context.Context, saved models.Interaction) {
	now := time.Now().Unix()

	logged := models.InteractionLogged{
		EventType:     "interaction.logged",
		InteractionID: saved.ID,
		ContactID:     saved.ContactID,
		Type:          string(saved.Type),
		Date:          saved.Date,
		Timestamp:     now,
	}
	if err := h.publisher.PublishInteractionLogged(ctx, saved.ContactID, logged); err != nil {
		log.Warn().Err(err).Str("interactionId", saved.ID).Msg("Failed to publish interaction.logged")
	}

	if !saved.ReminderSet {
		return
	}
	reminder := models.ReminderScheduled{
		EventType:     "interaction.reminder.scheduled",
		InteractionID: saved.ID,
		ContactID:     saved.ContactID,
		Timestamp:     now,
	}
	if saved.NextFollowUpDate != nil {
		reminder.NextFollowUpDate = *saved.NextFollowUpDate
	}
	if err := h.publisher.PublishReminderScheduled(ctx, saved.ContactID, reminder); err != nil {
		log.Warn().Err(err).Str("interactionId", saved.ID).Msg("Failed to publish reminder.scheduled")
	}
}

func (h *Handler) UpdateInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in, err := interactionFromRequest(req)
	if err != nil {
		var verr *interaction.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": verr.Message,
				"field": verr.Field,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.ID = chi.URLParam(r, "id")

	updated, err := h.store.UpdateInteraction(r.Context(), in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// interactionFromRequest validates an update payload with the same field
// rules the builder applies on create.
func interactionFromRequest(req interactionRequest) (models.Interaction, error) {
	if req.Date == "" {
		return models.Interaction{}, &interaction.ValidationError{Field: "date", Message: "date is required"}
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return models.Interaction{}, &interaction.ValidationError{Field: "date", Message: "date must be a valid calendar date (YYYY-MM-DD)"}
	}
	typ, err := models.ParseInteractionType(req.Type)
	if err != nil {
		if req.Type == "" {
			return models.Interaction{}, &interaction.ValidationError{Field: "type", Message: "type is required"}
		}
		return models.Interaction{}, &interaction.ValidationError{Field: "type", Message: err.Error()}
	}

	in := models.Interaction{
		ContactID:   req.ContactID,
		Date:        req.Date,
		Type:        typ,
		Notes:       req.Notes,
		ReminderSet: req.ReminderSet,
	}
	// Reminder off clears any stale follow-up date.
	if req.ReminderSet && req.NextFollowUpDate != "" {
		if _, err := time.Parse(models.DateLayout, req.NextFollowUpDate); err != nil {
			return models.Interaction{}, &interaction.ValidationError{Field: "nextFollowUpDate", Message: "follow-up date must be a valid calendar date (YYYY-MM-DD)"}
		}
		d := req.NextFollowUpDate
		in.NextFollowUpDate = &d
	}
	return in, nil
}

func (h *Handler) DeleteInteraction(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteInteraction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- assist ---

type generateNotesRequest struct {
	Notes string `json:"notes"`
}

// GenerateNotes sends the caller's draft notes to the upstream model
// and returns the generated text. Blank input is rejected without an
// upstream call.
func (h *Handler) GenerateNotes(w http.ResponseWriter, r *http.Request) {
	var req generateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Notes) == "" {
		writeError(w, http.StatusBadRequest, "notes must not be empty")
		return
	}

	prompt := req.Notes
	if h.templates != nil {
		prompt = h.templates.BuildPrompt(req.Notes)
	}

	text, err := h.generator.Generate(r.Context(), prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Assist generation failed")
		writeError(w, http.StatusBadGateway, "generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// --- dashboard ---

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.DashboardStats(r.Context(), time.Now())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
