package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/shared"
)

// QuestionnaireStore is the slice of the questionnaire repository the
// handler needs.
type QuestionnaireStore interface {
	Create(q *models.Questionnaire) error
	Get(id string) (*models.Questionnaire, error)
	AddResponse(id string, response models.QuestionnaireResponse) error
}

// QuestionnaireHandler serves questionnaire creation, retrieval and the
// append-only response feed.
type QuestionnaireHandler struct {
	store  QuestionnaireStore
	logger *log.Logger
}

func NewQuestionnaireHandler(store QuestionnaireStore, logger *log.Logger) *QuestionnaireHandler {
	return &QuestionnaireHandler{store: store, logger: logger}
}

func (h *QuestionnaireHandler) Routes() []string {
	return []string{
		"POST /questionnaires",
		"GET /questionnaires/{id}",
		"POST /questionnaires/{id}/responses",
	}
}

func (h *QuestionnaireHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/questionnaires":
		h.create(w, r)
	case r.Method == http.MethodGet:
		h.get(w, r)
	default:
		h.addResponse(w, r)
	}
}

type createQuestionnaireRequest struct {
	PlaylistID string   `json:"playlistId"`
	Questions  []string `json:"questions"`
}

func (h *QuestionnaireHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createQuestionnaireRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	questionnaire := &models.Questionnaire{
		PlaylistID: req.PlaylistID,
		Questions:  req.Questions,
	}
	if err := h.store.Create(questionnaire); err != nil {
		respondError(w, err)
		return
	}

	h.logger.Info("questionnaire created", "questionnaire_id", questionnaire.ID, "playlist_id", questionnaire.PlaylistID)

	respondJSON(w, http.StatusCreated, map[string]string{"questionnaireId": questionnaire.ID})
}

// pathID validates the {id} segment before any storage access.
func pathID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if !shared.ValidID(id) {
		return "", fmt.Errorf("%w: malformed questionnaire id %q", shared.ErrValidation, id)
	}
	return id, nil
}

func (h *QuestionnaireHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	questionnaire, err := h.store.Get(id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, questionnaire)
}

type addResponseRequest struct {
	RespondentID string   `json:"respondentId"`
	Answers      []string `json:"answers"`
}

func (h *QuestionnaireHandler) addResponse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req addResponseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.RespondentID == "" || len(req.Answers) == 0 {
		respondError(w, fmt.Errorf("%w: respondentId and answers are required", shared.ErrValidation))
		return
	}

	response := models.QuestionnaireResponse{
		RespondentID: req.RespondentID,
		Answers:      req.Answers,
		RespondedAt:  time.Now().UTC(),
	}
	if err := h.store.AddResponse(id, response); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "response recorded"})
}
