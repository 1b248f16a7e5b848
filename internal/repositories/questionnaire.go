package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lmeynard/friendship/internal/models"
	"github.com/lmeynard/friendship/internal/shared"
)

// QuestionnaireRepository persists [models.Questionnaire] records and their
// append-only responses.
type QuestionnaireRepository struct {
	db *sql.DB
}

// NewQuestionnaireRepository creates a new QuestionnaireRepository with the given database connection
func NewQuestionnaireRepository(db *sql.DB) *QuestionnaireRepository {
	return &QuestionnaireRepository{db: db}
}

// Create inserts a new questionnaire with generated ID and sequence.
// Question order is preserved via a JSON-encoded column.
func (r *QuestionnaireRepository) Create(q *models.Questionnaire) error {
	sequence, err := NextSequence(r.db, "questionnaires")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	q.ID = shared.GenerateID()
	q.Sequence = sequence

	if err := q.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	q.CreatedAt = time.Now()

	query := `
		INSERT INTO questionnaires (id, sequence, playlist_id, questions, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, q.ID, q.Sequence, q.PlaylistID, string(questions), q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert questionnaire: %w", err)
	}

	return nil
}

// Get retrieves a questionnaire by ID, including its responses in the order
// they arrived.
func (r *QuestionnaireRepository) Get(id string) (*models.Questionnaire, error) {
	query := `
		SELECT id, sequence, playlist_id, questions, created_at
		FROM questionnaires
		WHERE id = ?
	`

	var (
		q            models.Questionnaire
		questionsRaw string
	)
	err := r.db.QueryRow(query, id).Scan(&q.ID, &q.Sequence, &q.PlaylistID, &questionsRaw, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: questionnaire %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query questionnaire: %w", err)
	}

	if err := json.Unmarshal([]byte(questionsRaw), &q.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	responses, err := r.responses(id)
	if err != nil {
		return nil, err
	}
	q.Responses = responses

	return &q, nil
}

// AddResponse appends a response to an existing questionnaire. Appending to
// an unknown questionnaire fails with [shared.ErrNotFound].
func (r *QuestionnaireRepository) AddResponse(id string, response models.QuestionnaireResponse) error {
	var exists bool
	err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM questionnaires WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check questionnaire: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: questionnaire %s", shared.ErrNotFound, id)
	}

	answers, err := json.Marshal(response.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `
		INSERT INTO questionnaire_responses (id, questionnaire_id, respondent_id, answers, responded_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, shared.GenerateID(), id, response.RespondentID, string(answers), response.RespondedAt)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}

	return nil
}

// responses loads all responses for a questionnaire, oldest first.
func (r *QuestionnaireRepository) responses(questionnaireID string) ([]models.QuestionnaireResponse, error) {
	query := `
		SELECT respondent_id, answers, responded_at
		FROM questionnaire_responses
		WHERE questionnaire_id = ?
		ORDER BY responded_at ASC
	`

	rows, err := r.db.Query(query, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	responses := []models.QuestionnaireResponse{}
	for rows.Next() {
		var (
			response   models.QuestionnaireResponse
			answersRaw string
		)
		if err := rows.Scan(&response.RespondentID, &answersRaw, &response.RespondedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if err := json.Unmarshal([]byte(answersRaw), &response.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers: %w", err)
		}
		responses = append(responses, response)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return responses, nil
}
