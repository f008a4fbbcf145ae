package suggest

import (
	"context"
	"fmt"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// TopicSuggestion is one proposed topic. Duplicate is set when the name
// matches an existing topic of the book (ExistingID names it) or an
// earlier suggestion of the same batch.
type TopicSuggestion struct {
	Name       content.Text `json:"name"`
	Duplicate  bool         `json:"duplicate"`
	ExistingID string       `json:"existing_id,omitempty"`
}

// GenerateTopics proposes count new topics for a book.
func (s *Service) GenerateTopics(ctx context.Context, bookID string, count int) ([]TopicSuggestion, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	book, err := s.store.Books().Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	subject, err := s.store.Subjects().Get(ctx, book.SubjectID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Topics().ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	var out topicsOutput
	req := userRequest(buildTopicsPrompt(subject, book, existing, count), topicsSchema, s.cfg.TopicMaxTokens)
	if err := s.generate(ctx, PurposeTopics, req, &out); err != nil {
		return nil, err
	}

	suggestions := make([]TopicSuggestion, 0, len(out.Topics))
	for _, t := range out.Topics {
		name := content.Text{UK: t.NameUK, EN: t.NameEN}.Trimmed()
		if name.UK == "" {
			continue
		}
		suggestions = append(suggestions, TopicSuggestion{Name: name})
	}
	markTopics(existing, suggestions)
	s.logger.Info("generated topic suggestions", "book", bookID, "count", len(suggestions))
	return suggestions, nil
}

// markTopics sets the duplicate flags of suggestions in place.
func markTopics(existing []content.Topic, suggestions []TopicSuggestion) {
	ix := make(index)
	for _, t := range existing {
		ix.add(t.Name, t.ID)
	}
	seen := make(batch)
	for i := range suggestions {
		sg := &suggestions[i]
		sg.Duplicate, sg.ExistingID = false, ""
		if id, ok := ix.lookup(sg.Name); ok {
			sg.Duplicate, sg.ExistingID = true, id
		}
		if seen.seen(sg.Name) {
			sg.Duplicate = true
		}
	}
}

// ApplyTopics creates the non-duplicate suggestions as new topics at the
// end of the book. Suggestions matching an existing topic fill in its
// missing translation. Duplicate flags are recomputed against the current
// topics.
func (s *Service) ApplyTopics(ctx context.Context, bookID string, suggestions []TopicSuggestion) (*ApplyResult, error) {
	res := &ApplyResult{IDs: []string{}}
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.Books().Get(ctx, bookID); err != nil {
			return err
		}
		existing, err := tx.Topics().ListByBook(ctx, bookID)
		if err != nil {
			return err
		}
		byID := make(map[string]*content.Topic, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		items := make([]TopicSuggestion, len(suggestions))
		for i, sg := range suggestions {
			items[i] = TopicSuggestion{Name: sg.Name.Trimmed()}
			if items[i].Name.UK == "" {
				return &SuggestionError{Index: i, Field: "name", Err: ErrEmptyText}
			}
		}
		markTopics(existing, items)

		for _, sg := range items {
			switch {
			case sg.ExistingID != "":
				t := byID[sg.ExistingID]
				if !t.Name.FillMissing(sg.Name) {
					res.Skipped++
					continue
				}
				if err := tx.Topics().Update(ctx, t); err != nil {
					return err
				}
				res.Updated++
				res.IDs = append(res.IDs, t.ID)
			case sg.Duplicate:
				res.Skipped++
			default:
				t := &content.Topic{BookID: bookID, Name: sg.Name}
				if err := tx.Topics().Create(ctx, t); err != nil {
					return fmt.Errorf("create topic %q: %w", sg.Name.UK, err)
				}
				res.Created++
				res.IDs = append(res.IDs, t.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("applied topic suggestions", "book", bookID,
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}
