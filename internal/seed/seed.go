// Package seed imports content trees from YAML files.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// File is the root of a seed document.
type File struct {
	Levels   []Level   `yaml:"levels"`
	Subjects []Subject `yaml:"subjects"`
}

type Level struct {
	Code string       `yaml:"code"`
	Name content.Text `yaml:"name"`
}

type Subject struct {
	Slug        string       `yaml:"slug"`
	Name        content.Text `yaml:"name"`
	Description content.Text `yaml:"description"`
	Books       []Book       `yaml:"books"`
}

type Book struct {
	Name        content.Text `yaml:"name"`
	Description content.Text `yaml:"description"`
	Author      string       `yaml:"author"`
	Topics      []Topic      `yaml:"topics"`
}

type Topic struct {
	Name      content.Text `yaml:"name"`
	Theory    content.Text `yaml:"theory"`
	Questions []Question   `yaml:"questions"`
}

type Question struct {
	Level       string       `yaml:"level"`
	Text        content.Text `yaml:"text"`
	Explanation content.Text `yaml:"explanation"`
	Answers     []Answer     `yaml:"answers"`
}

type Answer struct {
	Text    content.Text `yaml:"text"`
	Correct bool         `yaml:"correct"`
}

// Summary counts the rows an import created.
type Summary struct {
	Levels    int
	Subjects  int
	Books     int
	Topics    int
	Questions int
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Import merges f into the store in one transaction. Existing rows are
// matched by level code, subject slug, and the normalized Ukrainian name
// or text of books, topics and questions; matched rows are left as they
// are and only missing children are added.
func Import(ctx context.Context, s *store.Store, f *File) (*Summary, error) {
	sum := &Summary{}
	err := s.WithTx(ctx, func(tx *store.Tx) error {
		levels := make(map[string]string)
		existing, err := tx.Levels().List(ctx)
		if err != nil {
			return err
		}
		for _, l := range existing {
			levels[l.Code] = l.ID
		}
		for _, l := range f.Levels {
			if _, ok := levels[l.Code]; ok {
				continue
			}
			lv := &content.Level{Code: l.Code, Name: l.Name.Trimmed()}
			if err := tx.Levels().Create(ctx, lv); err != nil {
				return fmt.Errorf("level %s: %w", l.Code, err)
			}
			levels[l.Code] = lv.ID
			sum.Levels++
		}

		for _, sj := range f.Subjects {
			if err := importSubject(ctx, tx, levels, sj, sum); err != nil {
				return fmt.Errorf("subject %s: %w", sj.Slug, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func importSubject(ctx context.Context, tx *store.Tx, levels map[string]string, sj Subject, sum *Summary) error {
	subj, err := tx.Subjects().GetBySlug(ctx, sj.Slug)
	if errors.Is(err, store.ErrNotFound) {
		subj = &content.Subject{Slug: sj.Slug, Name: sj.Name.Trimmed(), Description: sj.Description.Trimmed()}
		if err := tx.Subjects().Create(ctx, subj); err != nil {
			return err
		}
		sum.Subjects++
	} else if err != nil {
		return err
	}

	books, err := tx.Books().ListBySubject(ctx, subj.ID)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(books))
	for _, b := range books {
		byName[content.Normalize(b.Name.UK)] = b.ID
	}
	for _, bk := range sj.Books {
		id, ok := byName[content.Normalize(bk.Name.UK)]
		if !ok {
			b := &content.Book{
				SubjectID:   subj.ID,
				Name:        bk.Name.Trimmed(),
				Description: bk.Description.Trimmed(),
				Author:      bk.Author,
			}
			if err := tx.Books().Create(ctx, b); err != nil {
				return fmt.Errorf("book %q: %w", bk.Name.UK, err)
			}
			id = b.ID
			byName[content.Normalize(bk.Name.UK)] = id
			sum.Books++
		}
		if err := importTopics(ctx, tx, levels, id, bk.Topics, sum); err != nil {
			return fmt.Errorf("book %q: %w", bk.Name.UK, err)
		}
	}
	return nil
}

func importTopics(ctx context.Context, tx *store.Tx, levels map[string]string, bookID string, topics []Topic, sum *Summary) error {
	existing, err := tx.Topics().ListByBook(ctx, bookID)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(existing))
	for _, t := range existing {
		byName[content.Normalize(t.Name.UK)] = t.ID
	}
	for _, tp := range topics {
		id, ok := byName[content.Normalize(tp.Name.UK)]
		if !ok {
			t := &content.Topic{BookID: bookID, Name: tp.Name.Trimmed(), Theory: tp.Theory}
			if err := tx.Topics().Create(ctx, t); err != nil {
				return fmt.Errorf("topic %q: %w", tp.Name.UK, err)
			}
			id = t.ID
			byName[content.Normalize(tp.Name.UK)] = id
			sum.Topics++
		}
		if err := importQuestions(ctx, tx, levels, id, tp.Questions, sum); err != nil {
			return fmt.Errorf("topic %q: %w", tp.Name.UK, err)
		}
	}
	return nil
}

func importQuestions(ctx context.Context, tx *store.Tx, levels map[string]string, topicID string, questions []Question, sum *Summary) error {
	existing, err := tx.Questions().ListByTopic(ctx, topicID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, q := range existing {
		seen[content.Normalize(q.Text.UK)] = true
	}
	for _, qs := range questions {
		key := content.Normalize(qs.Text.UK)
		if seen[key] {
			continue
		}
		levelID, ok := levels[qs.Level]
		if !ok {
			return fmt.Errorf("question %q: unknown level %q", qs.Text.UK, qs.Level)
		}
		q := &content.Question{
			TopicID:     topicID,
			LevelID:     levelID,
			Text:        qs.Text.Trimmed(),
			Explanation: qs.Explanation.Trimmed(),
		}
		hasCorrect := false
		for _, a := range qs.Answers {
			q.Answers = append(q.Answers, content.Answer{Text: a.Text.Trimmed(), Correct: a.Correct})
			hasCorrect = hasCorrect || a.Correct
		}
		if len(q.Answers) < 2 || !hasCorrect {
			return fmt.Errorf("question %q needs at least two answers and one correct answer", qs.Text.UK)
		}
		if err := tx.Questions().Create(ctx, q); err != nil {
			return fmt.Errorf("question %q: %w", qs.Text.UK, err)
		}
		seen[key] = true
		sum.Questions++
	}
	return nil
}
