// Package progress maintains per-user learning scores for books and
// subjects.
//
// While a user learns a book there is one score row per level for that
// book, and one row per level for its subject holding the sums over the
// user's learned books of that subject. Every change runs in a single
// transaction.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
)

// ErrNotLearning is returned when stopping a book the user does not learn.
var ErrNotLearning = errors.New("user is not learning this book")

// LevelScore is the score at one level.
type LevelScore struct {
	LevelID   string       `json:"level_id"`
	LevelCode string       `json:"level_code"`
	LevelName content.Text `json:"level_name"`
	Score     int          `json:"score"`
	Total     int          `json:"total"`
	Percent   int          `json:"percent"`
}

// BookProgress is a learned book with its level scores.
type BookProgress struct {
	Book    content.Book `json:"book"`
	Levels  []LevelScore `json:"levels"`
	Score   int          `json:"score"`
	Total   int          `json:"total"`
	Percent int          `json:"percent"`
}

// SubjectProgress aggregates the learned books of one subject.
type SubjectProgress struct {
	Subject content.Subject `json:"subject"`
	Levels  []LevelScore    `json:"levels"`
	Score   int             `json:"score"`
	Total   int             `json:"total"`
	Percent int             `json:"percent"`
}

// Overview is everything a user is learning.
type Overview struct {
	Books    []BookProgress    `json:"books"`
	Subjects []SubjectProgress `json:"subjects"`
}

// AnswerResult is the outcome of one attempt.
type AnswerResult struct {
	QuestionID       string        `json:"question_id"`
	Correct          bool          `json:"correct"`
	CorrectAnswerIDs []string      `json:"correct_answer_ids"`
	Explanation      content.Text  `json:"explanation"`
	Book             *BookProgress `json:"book,omitempty"`
}

// Service runs the progress transactions.
type Service struct {
	store  *store.Store
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(s *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, logger: logger}
}

// StartLearningBook marks the book as learned by the user and (re)builds
// its score rows. Starting twice is a no-op apart from the rebuild.
func (s *Service) StartLearningBook(ctx context.Context, userID, bookID string) (*BookProgress, error) {
	var out *BookProgress
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		book, err := tx.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}
		created, err := tx.Progress().StartBook(ctx, userID, bookID)
		if err != nil {
			return err
		}
		levels, err := tx.Levels().List(ctx)
		if err != nil {
			return fmt.Errorf("list levels: %w", err)
		}
		if err := rebuildBook(ctx, tx, userID, bookID, levels); err != nil {
			return err
		}
		if err := rebuildSubject(ctx, tx, userID, book.SubjectID, levels); err != nil {
			return err
		}
		out, err = bookProgress(ctx, tx, userID, *book, levels)
		if err == nil && created {
			s.logger.Info("started learning book", "user", userID, "book", bookID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StopLearningBook removes the book's score rows and rebuilds the subject
// rows, deleting them when no learned book of the subject remains. Answer
// history is kept so restarting restores the score.
func (s *Service) StopLearningBook(ctx context.Context, userID, bookID string) error {
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		book, err := tx.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}
		if err := tx.Progress().StopBook(ctx, userID, bookID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotLearning
			}
			return fmt.Errorf("stop book: %w", err)
		}
		if err := tx.Progress().DeleteBookScores(ctx, userID, bookID); err != nil {
			return err
		}
		levels, err := tx.Levels().List(ctx)
		if err != nil {
			return fmt.Errorf("list levels: %w", err)
		}
		if err := rebuildSubject(ctx, tx, userID, book.SubjectID, levels); err != nil {
			return err
		}
		s.logger.Info("stopped learning book", "user", userID, "book", bookID)
		return nil
	})
}

// RecordAnswer evaluates a selection, stores the result and refreshes the
// scores of the question's book when the user learns it.
func (s *Service) RecordAnswer(ctx context.Context, userID, questionID string, selected []string) (*AnswerResult, error) {
	var out *AnswerResult
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		q, err := tx.Questions().Get(ctx, questionID)
		if err != nil {
			return err
		}
		res := &AnswerResult{
			QuestionID:       q.ID,
			Correct:          q.IsCorrect(selected),
			CorrectAnswerIDs: []string{},
			Explanation:      q.Explanation,
		}
		for _, a := range q.Answers {
			if a.Correct {
				res.CorrectAnswerIDs = append(res.CorrectAnswerIDs, a.ID)
			}
		}
		if err := tx.Progress().RecordResult(ctx, userID, q.ID, res.Correct); err != nil {
			return err
		}

		bookID, err := tx.Questions().BookID(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("book of question: %w", err)
		}
		learning, err := tx.Progress().IsLearning(ctx, userID, bookID)
		if err != nil {
			return fmt.Errorf("check learning: %w", err)
		}
		if learning {
			book, err := tx.Books().Get(ctx, bookID)
			if err != nil {
				return err
			}
			levels, err := tx.Levels().List(ctx)
			if err != nil {
				return fmt.Errorf("list levels: %w", err)
			}
			if err := rebuildBook(ctx, tx, userID, bookID, levels); err != nil {
				return err
			}
			if err := rebuildSubject(ctx, tx, userID, book.SubjectID, levels); err != nil {
				return err
			}
			if res.Book, err = bookProgress(ctx, tx, userID, *book, levels); err != nil {
				return err
			}
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Refresh rebuilds the scores of every user learning the book in its own
// transaction.
func (s *Service) Refresh(ctx context.Context, bookID string) error {
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		return RefreshBook(ctx, tx, bookID)
	})
}

// RefreshAll rebuilds every learned book in its own transaction.
func (s *Service) RefreshAll(ctx context.Context) error {
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		return RefreshBooks(ctx, tx)
	})
}

// RefreshBook rebuilds the scores of every user learning the book inside
// tx. Run it in the transaction that changes the book's questions so the
// change and the new totals commit together. A missing book is a no-op.
func RefreshBook(ctx context.Context, tx *store.Tx, bookID string) error {
	book, err := tx.Books().Get(ctx, bookID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return refreshBook(ctx, tx, *book)
}

// RefreshBooks rebuilds every learned book inside tx. Run it in the
// transaction that changes the levels.
func RefreshBooks(ctx context.Context, tx *store.Tx) error {
	books, err := tx.Books().List(ctx)
	if err != nil {
		return err
	}
	for _, b := range books {
		if err := refreshBook(ctx, tx, b); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBook deletes a book and rebuilds the subject rows of its learners.
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		book, err := tx.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}
		learners, err := tx.Progress().Learners(ctx, bookID)
		if err != nil {
			return err
		}
		if err := tx.Books().Delete(ctx, bookID); err != nil {
			return err
		}
		levels, err := tx.Levels().List(ctx)
		if err != nil {
			return fmt.Errorf("list levels: %w", err)
		}
		for _, userID := range learners {
			if err := rebuildSubject(ctx, tx, userID, book.SubjectID, levels); err != nil {
				return err
			}
		}
		return nil
	})
}

// Overview returns the user's learned books and subjects.
func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	q := s.store.Queries
	levels, err := q.Levels().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	learned, err := q.Progress().LearnedBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(learned))
	for i, ub := range learned {
		ids[i] = ub.BookID
	}
	books, err := q.Books().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	bookScores, err := q.Progress().BookScores(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	byBook := make(map[string]map[string]store.BookScore)
	for _, bs := range bookScores {
		if byBook[bs.BookID] == nil {
			byBook[bs.BookID] = make(map[string]store.BookScore)
		}
		byBook[bs.BookID][bs.LevelID] = bs
	}

	out := &Overview{Books: []BookProgress{}, Subjects: []SubjectProgress{}}
	bookByID := make(map[string]content.Book, len(books))
	for _, b := range books {
		bookByID[b.ID] = b
	}
	for _, ub := range learned {
		b, ok := bookByID[ub.BookID]
		if !ok {
			continue
		}
		bp := BookProgress{Book: b}
		bp.Levels, bp.Score, bp.Total = levelScores(levels, func(levelID string) (int, int) {
			bs := byBook[b.ID][levelID]
			return bs.Score, bs.Total
		})
		bp.Percent = percent(bp.Score, bp.Total)
		out.Books = append(out.Books, bp)
	}

	subjectScores, err := q.Progress().SubjectScores(ctx, userID)
	if err != nil {
		return nil, err
	}
	bySubject := make(map[string]map[string]store.SubjectScore)
	var subjectIDs []string
	for _, ss := range subjectScores {
		if bySubject[ss.SubjectID] == nil {
			bySubject[ss.SubjectID] = make(map[string]store.SubjectScore)
			subjectIDs = append(subjectIDs, ss.SubjectID)
		}
		bySubject[ss.SubjectID][ss.LevelID] = ss
	}
	for _, id := range subjectIDs {
		subj, err := q.Subjects().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		sp := SubjectProgress{Subject: *subj}
		sp.Levels, sp.Score, sp.Total = levelScores(levels, func(levelID string) (int, int) {
			ss := bySubject[id][levelID]
			return ss.Score, ss.Total
		})
		sp.Percent = percent(sp.Score, sp.Total)
		out.Subjects = append(out.Subjects, sp)
	}
	return out, nil
}

func refreshBook(ctx context.Context, tx *store.Tx, book content.Book) error {
	learners, err := tx.Progress().Learners(ctx, book.ID)
	if err != nil || len(learners) == 0 {
		return err
	}
	levels, err := tx.Levels().List(ctx)
	if err != nil {
		return fmt.Errorf("list levels: %w", err)
	}
	for _, userID := range learners {
		if err := rebuildBook(ctx, tx, userID, book.ID, levels); err != nil {
			return err
		}
		if err := rebuildSubject(ctx, tx, userID, book.SubjectID, levels); err != nil {
			return err
		}
	}
	return nil
}

// rebuildBook writes one row per level for the book: total is the number
// of the book's questions at that level, score the number the user last
// answered correctly.
func rebuildBook(ctx context.Context, tx *store.Tx, userID, bookID string, levels []content.Level) error {
	totals, err := tx.Progress().QuestionCounts(ctx, bookID)
	if err != nil {
		return err
	}
	correct, err := tx.Progress().CorrectCounts(ctx, userID, bookID)
	if err != nil {
		return err
	}
	totalBy, correctBy := countMap(totals), countMap(correct)
	for _, l := range levels {
		err := tx.Progress().UpsertBookScore(ctx, store.BookScore{
			UserID:  userID,
			BookID:  bookID,
			LevelID: l.ID,
			Score:   correctBy[l.ID],
			Total:   totalBy[l.ID],
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// rebuildSubject sums the user's book rows of a subject into subject rows,
// or removes them when the user learns no book of the subject.
func rebuildSubject(ctx context.Context, tx *store.Tx, userID, subjectID string, levels []content.Level) error {
	n, err := tx.Progress().LearnedInSubject(ctx, userID, subjectID)
	if err != nil {
		return err
	}
	if n == 0 {
		return tx.Progress().DeleteSubjectScores(ctx, userID, subjectID)
	}
	sums, err := tx.Progress().SumBookScores(ctx, userID, subjectID)
	if err != nil {
		return err
	}
	byLevel := make(map[string]store.SubjectScore, len(sums))
	for _, s := range sums {
		byLevel[s.LevelID] = s
	}
	for _, l := range levels {
		sum := byLevel[l.ID]
		err := tx.Progress().UpsertSubjectScore(ctx, store.SubjectScore{
			UserID:    userID,
			SubjectID: subjectID,
			LevelID:   l.ID,
			Score:     sum.Score,
			Total:     sum.Total,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func bookProgress(ctx context.Context, tx *store.Tx, userID string, book content.Book, levels []content.Level) (*BookProgress, error) {
	rows, err := tx.Progress().BookScores(ctx, userID, book.ID)
	if err != nil {
		return nil, err
	}
	byLevel := make(map[string]store.BookScore, len(rows))
	for _, r := range rows {
		byLevel[r.LevelID] = r
	}
	bp := &BookProgress{Book: book}
	bp.Levels, bp.Score, bp.Total = levelScores(levels, func(levelID string) (int, int) {
		r := byLevel[levelID]
		return r.Score, r.Total
	})
	bp.Percent = percent(bp.Score, bp.Total)
	return bp, nil
}

func levelScores(levels []content.Level, lookup func(levelID string) (score, total int)) ([]LevelScore, int, int) {
	out := make([]LevelScore, 0, len(levels))
	var score, total int
	for _, l := range levels {
		sc, tot := lookup(l.ID)
		out = append(out, LevelScore{
			LevelID:   l.ID,
			LevelCode: l.Code,
			LevelName: l.Name,
			Score:     sc,
			Total:     tot,
			Percent:   percent(sc, tot),
		})
		score += sc
		total += tot
	}
	return out, score, total
}

func countMap(counts []store.LevelCount) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.LevelID] = c.Count
	}
	return m
}

func percent(score, total int) int {
	if total == 0 {
		return 0
	}
	return score * 100 / total
}
