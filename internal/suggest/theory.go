package suggest

import (
	"context"
	"fmt"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// TheorySuggestion is proposed markdown theory for one topic.
type TheorySuggestion struct {
	TopicID string       `json:"topic_id"`
	Theory  content.Text `json:"theory"`
}

// GenerateTheory proposes theory for a topic.
func (s *Service) GenerateTheory(ctx context.Context, topicID string) (*TheorySuggestion, error) {
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
	siblings, err := s.store.Topics().ListByBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	var out theoryOutput
	prompt := buildTheoryPrompt(subject, book, topic, siblings)
	if err := s.generate(ctx, PurposeTheory, userRequest(prompt, theorySchema, s.cfg.TheoryMaxTokens), &out); err != nil {
		return nil, err
	}
	s.logger.Info("generated theory suggestion", "topic", topicID)
	return &TheorySuggestion{
		TopicID: topicID,
		Theory:  content.Text{UK: out.TheoryUK, EN: out.TheoryEN}.Trimmed(),
	}, nil
}

// ApplyTheory overwrites the theory of the selected languages ("uk", "en")
// and returns the updated topic.
func (s *Service) ApplyTheory(ctx context.Context, topicID string, theory content.Text, fields []string) (*content.Topic, error) {
	var out *content.Topic
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		t, err := tx.Topics().Get(ctx, topicID)
		if err != nil {
			return err
		}
		for _, f := range fields {
			switch f {
			case content.LangUK:
				t.Theory.UK = theory.UK
			case content.LangEN:
				t.Theory.EN = theory.EN
			default:
				return fmt.Errorf("unknown theory field %q", f)
			}
		}
		if err := tx.Topics().Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("applied theory suggestion", "topic", topicID, "fields", fields)
	return out, nil
}
