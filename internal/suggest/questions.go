package suggest

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/progress"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// AnswerSuggestion is one proposed answer option.
type AnswerSuggestion struct {
	Text    content.Text `json:"text"`
	Correct bool         `json:"correct"`
}

// QuestionSuggestion is one proposed question. Duplicate is set when its
// text matches an existing question of the topic (ExistingID names it) or
// an earlier suggestion of the same batch.
type QuestionSuggestion struct {
	LevelID     string             `json:"level_id"`
	Text        content.Text       `json:"text"`
	Explanation content.Text       `json:"explanation"`
	Answers     []AnswerSuggestion `json:"answers"`
	Duplicate   bool               `json:"duplicate"`
	ExistingID  string             `json:"existing_id,omitempty"`
}

// GenerateQuestions proposes count questions for a topic at the level with
// the given code.
func (s *Service) GenerateQuestions(ctx context.Context, topicID, levelCode string, count int) ([]QuestionSuggestion, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	topic, err := s.store.Topics().Get(ctx, topicID)
	if err != nil {
		return nil, err
	}
	book, err := s.store.Books().Get(ctx, topic.BookID)
	if err != nil {
		return nil, err
	}
	subject, err := s.store.Subjects().Get(ctx, book.SubjectID)
	if err != nil {
		return nil, err
	}
	level, err := s.store.Levels().GetByCode(ctx, levelCode)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLevel, levelCode)
	}
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Questions().ListByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	var out questionsOutput
	prompt := buildQuestionsPrompt(subject, book, topic, level, existing, count)
	if err := s.generate(ctx, PurposeQuestions, userRequest(prompt, questionsSchema, s.cfg.QuestionMaxTokens), &out); err != nil {
		return nil, err
	}

	suggestions := make([]QuestionSuggestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		sg := QuestionSuggestion{
			LevelID:     level.ID,
			Text:        content.Text{UK: q.TextUK, EN: q.TextEN}.Trimmed(),
			Explanation: content.Text{UK: q.ExplanationUK, EN: q.ExplanationEN}.Trimmed(),
		}
		for _, a := range q.Answers {
			text := content.Text{UK: a.TextUK, EN: a.TextEN}.Trimmed()
			if text.UK == "" {
				continue
			}
			sg.Answers = append(sg.Answers, AnswerSuggestion{Text: text, Correct: a.Correct})
		}
		if err := checkAnswers(sg.Answers); sg.Text.UK == "" || err != nil {
			s.logger.Warn("dropping invalid question suggestion", "topic", topicID, "text", sg.Text.UK, "error", err)
			continue
		}
		suggestions = append(suggestions, sg)
	}
	markQuestions(existing, suggestions)
	s.logger.Info("generated question suggestions", "topic", topicID, "level", levelCode, "count", len(suggestions))
	return suggestions, nil
}

func checkAnswers(answers []AnswerSuggestion) error {
	if len(answers) < 2 {
		return ErrTooFewAnswers
	}
	for _, a := range answers {
		if a.Correct {
			return nil
		}
	}
	return ErrNoCorrectAnswer
}

func markQuestions(existing []content.Question, suggestions []QuestionSuggestion) {
	ix := make(index)
	for _, q := range existing {
		ix.add(q.Text, q.ID)
	}
	seen := make(batch)
	for i := range suggestions {
		sg := &suggestions[i]
		sg.Duplicate, sg.ExistingID = false, ""
		if id, ok := ix.lookup(sg.Text); ok {
			sg.Duplicate, sg.ExistingID = true, id
		}
		if seen.seen(sg.Text) {
			sg.Duplicate = true
		}
	}
}

// ApplyQuestions creates the non-duplicate suggestions with their answers.
// A suggestion matching an existing question adds the answers that
// question lacks and fills its empty translations and explanation.
func (s *Service) ApplyQuestions(ctx context.Context, topicID string, suggestions []QuestionSuggestion) (*ApplyResult, error) {
	res := &ApplyResult{IDs: []string{}}
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		topic, err := tx.Topics().Get(ctx, topicID)
		if err != nil {
			return err
		}
		levels, err := tx.Levels().List(ctx)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(levels))
		for _, l := range levels {
			known[l.ID] = true
		}
		existing, err := tx.Questions().ListByTopic(ctx, topicID)
		if err != nil {
			return err
		}
		byID := make(map[string]*content.Question, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		items := make([]QuestionSuggestion, len(suggestions))
		for i, sg := range suggestions {
			items[i] = trimQuestion(sg)
			if !known[items[i].LevelID] {
				return &SuggestionError{Index: i, Field: "level_id", Err: ErrUnknownLevel}
			}
			if field := emptyField(items[i]); field != "" {
				return &SuggestionError{Index: i, Field: field, Err: ErrEmptyText}
			}
		}
		markQuestions(existing, items)

		merged := make(map[string]bool)
		for i, sg := range items {
			switch {
			case sg.ExistingID != "" && merged[sg.ExistingID]:
				res.Skipped++
			case sg.ExistingID != "":
				merged[sg.ExistingID] = true
				changed, err := mergeQuestion(ctx, tx, byID[sg.ExistingID], sg)
				if err != nil {
					return err
				}
				if !changed {
					res.Skipped++
					continue
				}
				res.Updated++
				res.IDs = append(res.IDs, sg.ExistingID)
			case sg.Duplicate:
				res.Skipped++
			default:
				if err := checkAnswers(sg.Answers); err != nil {
					return &SuggestionError{Index: i, Field: "answers", Err: err}
				}
				q := &content.Question{
					TopicID:     topicID,
					LevelID:     sg.LevelID,
					Text:        sg.Text,
					Explanation: sg.Explanation,
				}
				for _, a := range sg.Answers {
					q.Answers = append(q.Answers, content.Answer{Text: a.Text, Correct: a.Correct})
				}
				if err := tx.Questions().Create(ctx, q); err != nil {
					return fmt.Errorf("create question %q: %w", sg.Text.UK, err)
				}
				res.Created++
				res.IDs = append(res.IDs, q.ID)
			}
		}
		if res.Created == 0 && res.Updated == 0 {
			return nil
		}
		return progress.RefreshBook(ctx, tx, topic.BookID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("applied question suggestions", "topic", topicID,
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

// emptyField names the first part of sg whose Ukrainian text is empty.
func emptyField(sg QuestionSuggestion) string {
	if sg.Text.UK == "" {
		return "text"
	}
	for _, a := range sg.Answers {
		if a.Text.UK == "" {
			return "answers"
		}
	}
	return ""
}

func trimQuestion(sg QuestionSuggestion) QuestionSuggestion {
	out := QuestionSuggestion{
		LevelID:     sg.LevelID,
		Text:        sg.Text.Trimmed(),
		Explanation: sg.Explanation.Trimmed(),
	}
	for _, a := range sg.Answers {
		out.Answers = append(out.Answers, AnswerSuggestion{Text: a.Text.Trimmed(), Correct: a.Correct})
	}
	return out
}

// mergeQuestion folds sg into the existing question q. Answers are matched
// by their normalized text. New answers are appended to q.Answers.
func mergeQuestion(ctx context.Context, tx *store.Tx, q *content.Question, sg QuestionSuggestion) (bool, error) {
	changed := q.Text.FillMissing(sg.Text)
	if q.Explanation.FillMissing(sg.Explanation) {
		changed = true
	}
	if changed {
		if err := tx.Questions().UpdateText(ctx, q); err != nil {
			return false, err
		}
	}

	ix := make(index)
	pos := make(map[string]int, len(q.Answers))
	for i, a := range q.Answers {
		ix.add(a.Text, a.ID)
		pos[a.ID] = i
	}
	for _, a := range sg.Answers {
		if id, ok := ix.lookup(a.Text); ok {
			existing := &q.Answers[pos[id]]
			if existing.Text.FillMissing(a.Text) {
				if err := tx.Questions().UpdateAnswerText(ctx, existing); err != nil {
					return false, err
				}
				changed = true
			}
			continue
		}
		na := content.Answer{QuestionID: q.ID, Text: a.Text, Correct: a.Correct}
		if err := tx.Questions().AddAnswer(ctx, &na); err != nil {
			return false, err
		}
		q.Answers = append(q.Answers, na)
		pos[na.ID] = len(q.Answers) - 1
		ix.add(na.Text, na.ID)
		changed = true
	}
	return changed, nil
}
