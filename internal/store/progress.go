package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	userBooksTable           = "user_books"
	userBookScoresTable      = "user_book_scores"
	userSubjectScoresTable   = "user_subject_scores"
	userQuestionResultsTable = "user_question_results"
)

// UserBook marks a book the user is currently learning.
type UserBook struct {
	UserID    string
	BookID    string
	StartedAt time.Time
}

// BookScore is the per-level aggregate for one learned book.
type BookScore struct {
	UserID    string
	BookID    string
	LevelID   string
	Score     int
	Total     int
	UpdatedAt time.Time
}

// SubjectScore is the per-level aggregate over the learned books of a subject.
type SubjectScore struct {
	UserID    string
	SubjectID string
	LevelID   string
	Score     int
	Total     int
	UpdatedAt time.Time
}

// LevelCount pairs a level with a count of questions.
type LevelCount struct {
	LevelID string
	Count   int
}

// ProgressRepo reads and writes per-user learning state.
type ProgressRepo struct {
	c conn
}

// StartBook records that the user learns the book. It reports whether a
// new row was created.
func (r *ProgressRepo) StartBook(ctx context.Context, userID, bookID string) (bool, error) {
	ins := r.c.b().Insert(userBooksTable).
		Columns("user_id", "book_id", "started_at").
		Values(userID, bookID, now()).
		OnConflict(entsql.ConflictColumns("user_id", "book_id"), entsql.DoNothing())
	res, err := r.c.exec(ctx, ins)
	if err != nil {
		return false, fmt.Errorf("insert user book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// StopBook deletes the learning marker. ErrNotFound means the user was not
// learning the book.
func (r *ProgressRepo) StopBook(ctx context.Context, userID, bookID string) error {
	del := r.c.b().Delete(userBooksTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("book_id", bookID)))
	return r.c.execAffecting(ctx, del)
}

// IsLearning reports whether the user learns the book.
func (r *ProgressRepo) IsLearning(ctx context.Context, userID, bookID string) (bool, error) {
	n, err := r.c.count(ctx, userBooksTable,
		entsql.And(entsql.EQ("user_id", userID), entsql.EQ("book_id", bookID)))
	return n > 0, err
}

// LearnedBooks returns the user's learned books, oldest first.
func (r *ProgressRepo) LearnedBooks(ctx context.Context, userID string) ([]UserBook, error) {
	sel := r.c.b().Select("user_id", "book_id", "started_at").From(r.c.table(userBooksTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("started_at", "book_id")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list user books: %w", err)
	}
	out, err := collect(rows, func(s scanner) (UserBook, error) {
		var ub UserBook
		err := s.Scan(&ub.UserID, &ub.BookID, &ub.StartedAt)
		return ub, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan user books: %w", err)
	}
	return out, nil
}

// Learners returns the ids of users learning the book.
func (r *ProgressRepo) Learners(ctx context.Context, bookID string) ([]string, error) {
	sel := r.c.b().Select("user_id").From(r.c.table(userBooksTable)).
		Where(entsql.EQ("book_id", bookID)).
		OrderBy("user_id")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	out, err := collect(rows, func(s scanner) (string, error) {
		var id string
		err := s.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan learners: %w", err)
	}
	return out, nil
}

// LearnedInSubject counts the user's learned books of a subject.
func (r *ProgressRepo) LearnedInSubject(ctx context.Context, userID, subjectID string) (int, error) {
	ub, b := r.c.table(userBooksTable), r.c.table(booksTable)
	sel := r.c.b().Select("COUNT(*)").From(ub).
		Join(b).On(ub.C("book_id"), b.C("id")).
		Where(entsql.And(entsql.EQ(ub.C("user_id"), userID), entsql.EQ(b.C("subject_id"), subjectID)))
	var n int
	if err := r.c.queryRow(ctx, sel).Scan(&n); err != nil {
		return 0, fmt.Errorf("count learned books: %w", err)
	}
	return n, nil
}

// QuestionCounts returns, per level, how many questions the book has.
func (r *ProgressRepo) QuestionCounts(ctx context.Context, bookID string) ([]LevelCount, error) {
	q, t := r.c.table(questionsTable), r.c.table(topicsTable)
	sel := r.c.b().Select(q.C("level_id"), "COUNT(*)").From(q).
		Join(t).On(q.C("topic_id"), t.C("id")).
		Where(entsql.EQ(t.C("book_id"), bookID)).
		GroupBy(q.C("level_id"))
	return r.levelCounts(ctx, sel)
}

// CorrectCounts returns, per level, how many of the book's questions the
// user last answered correctly.
func (r *ProgressRepo) CorrectCounts(ctx context.Context, userID, bookID string) ([]LevelCount, error) {
	q, t, res := r.c.table(questionsTable), r.c.table(topicsTable), r.c.table(userQuestionResultsTable)
	sel := r.c.b().Select(q.C("level_id"), "COUNT(*)").From(q).
		Join(t).On(q.C("topic_id"), t.C("id")).
		Join(res).On(res.C("question_id"), q.C("id")).
		Where(entsql.And(
			entsql.EQ(t.C("book_id"), bookID),
			entsql.EQ(res.C("user_id"), userID),
			entsql.EQ(res.C("correct"), true),
		)).
		GroupBy(q.C("level_id"))
	return r.levelCounts(ctx, sel)
}

func (r *ProgressRepo) levelCounts(ctx context.Context, sel *entsql.Selector) ([]LevelCount, error) {
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("count questions by level: %w", err)
	}
	out, err := collect(rows, func(s scanner) (LevelCount, error) {
		var lc LevelCount
		err := s.Scan(&lc.LevelID, &lc.Count)
		return lc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan level counts: %w", err)
	}
	return out, nil
}

// UpsertBookScore writes one book score row.
func (r *ProgressRepo) UpsertBookScore(ctx context.Context, s BookScore) error {
	ins := r.c.b().Insert(userBookScoresTable).
		Columns("user_id", "book_id", "level_id", "score", "total", "updated_at").
		Values(s.UserID, s.BookID, s.LevelID, s.Score, s.Total, now()).
		OnConflict(
			entsql.ConflictColumns("user_id", "book_id", "level_id"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert book score: %w", err)
	}
	return nil
}

// DeleteBookScores removes every level row of one learned book.
func (r *ProgressRepo) DeleteBookScores(ctx context.Context, userID, bookID string) error {
	del := r.c.b().Delete(userBookScoresTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("book_id", bookID)))
	if _, err := r.c.exec(ctx, del); err != nil {
		return fmt.Errorf("delete book scores: %w", err)
	}
	return nil
}

// BookScores returns the user's book score rows. An empty bookID returns
// rows of every book.
func (r *ProgressRepo) BookScores(ctx context.Context, userID, bookID string) ([]BookScore, error) {
	where := entsql.EQ("user_id", userID)
	if bookID != "" {
		where = entsql.And(where, entsql.EQ("book_id", bookID))
	}
	sel := r.c.b().Select("user_id", "book_id", "level_id", "score", "total", "updated_at").
		From(r.c.table(userBookScoresTable)).
		Where(where).
		OrderBy("book_id", "level_id")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list book scores: %w", err)
	}
	out, err := collect(rows, func(s scanner) (BookScore, error) {
		var b BookScore
		err := s.Scan(&b.UserID, &b.BookID, &b.LevelID, &b.Score, &b.Total, &b.UpdatedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan book scores: %w", err)
	}
	return out, nil
}

// SumBookScores adds up, per level, the user's book rows within a subject.
func (r *ProgressRepo) SumBookScores(ctx context.Context, userID, subjectID string) ([]SubjectScore, error) {
	s, b := r.c.table(userBookScoresTable), r.c.table(booksTable)
	sel := r.c.b().Select(s.C("level_id"), "SUM("+s.C("score")+")", "SUM("+s.C("total")+")").
		From(s).
		Join(b).On(s.C("book_id"), b.C("id")).
		Where(entsql.And(entsql.EQ(s.C("user_id"), userID), entsql.EQ(b.C("subject_id"), subjectID))).
		GroupBy(s.C("level_id"))
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("sum book scores: %w", err)
	}
	out, err := collect(rows, func(sc scanner) (SubjectScore, error) {
		v := SubjectScore{UserID: userID, SubjectID: subjectID}
		err := sc.Scan(&v.LevelID, &v.Score, &v.Total)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan score sums: %w", err)
	}
	return out, nil
}

// UpsertSubjectScore writes one subject score row.
func (r *ProgressRepo) UpsertSubjectScore(ctx context.Context, s SubjectScore) error {
	ins := r.c.b().Insert(userSubjectScoresTable).
		Columns("user_id", "subject_id", "level_id", "score", "total", "updated_at").
		Values(s.UserID, s.SubjectID, s.LevelID, s.Score, s.Total, now()).
		OnConflict(
			entsql.ConflictColumns("user_id", "subject_id", "level_id"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert subject score: %w", err)
	}
	return nil
}

// DeleteSubjectScores removes every level row of one subject.
func (r *ProgressRepo) DeleteSubjectScores(ctx context.Context, userID, subjectID string) error {
	del := r.c.b().Delete(userSubjectScoresTable).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("subject_id", subjectID)))
	if _, err := r.c.exec(ctx, del); err != nil {
		return fmt.Errorf("delete subject scores: %w", err)
	}
	return nil
}

// SubjectScores returns the user's subject score rows.
func (r *ProgressRepo) SubjectScores(ctx context.Context, userID string) ([]SubjectScore, error) {
	sel := r.c.b().Select("user_id", "subject_id", "level_id", "score", "total", "updated_at").
		From(r.c.table(userSubjectScoresTable)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("subject_id", "level_id")
	rows, err := r.c.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list subject scores: %w", err)
	}
	out, err := collect(rows, func(s scanner) (SubjectScore, error) {
		var v SubjectScore
		err := s.Scan(&v.UserID, &v.SubjectID, &v.LevelID, &v.Score, &v.Total, &v.UpdatedAt)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan subject scores: %w", err)
	}
	return out, nil
}

// RecordResult stores the outcome of the user's latest attempt at a question.
func (r *ProgressRepo) RecordResult(ctx context.Context, userID, questionID string, correct bool) error {
	ins := r.c.b().Insert(userQuestionResultsTable).
		Columns("user_id", "question_id", "correct", "answered_at").
		Values(userID, questionID, correct, now()).
		OnConflict(
			entsql.ConflictColumns("user_id", "question_id"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := r.c.exec(ctx, ins); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// CountLearning returns the number of active (user, book) learning rows.
func (r *ProgressRepo) CountLearning(ctx context.Context) (int, error) {
	return r.c.count(ctx, userBooksTable, nil)
}

// CountResults returns the number of recorded answers.
func (r *ProgressRepo) CountResults(ctx context.Context) (int, error) {
	return r.c.count(ctx, userQuestionResultsTable, nil)
}
