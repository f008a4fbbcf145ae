package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pidruchnyk/internal/content"
	"github.com/abhisek/pidruchnyk/internal/store"
)

type fixture struct {
	store           *store.Store
	svc             *Service
	user            content.User
	basic, advanced content.Level
	subject         content.Subject
	algebra         content.Book
	geometry        content.Book
	fractions       content.Topic
	angles          content.Topic
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	s, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	f := &fixture{
		store:    s,
		svc:      NewService(s, nil),
		user:     content.User{Email: "learner@example.com", PasswordHash: "x"},
		basic:    content.Level{Code: "basic", Name: content.Text{UK: "Базовий"}},
		advanced: content.Level{Code: "advanced", Name: content.Text{UK: "Поглиблений"}},
		subject:  content.Subject{Slug: "math", Name: content.Text{UK: "Математика"}},
	}
	require.NoError(t, s.Users().Create(ctx, &f.user))
	require.NoError(t, s.Levels().Create(ctx, &f.basic))
	require.NoError(t, s.Levels().Create(ctx, &f.advanced))
	require.NoError(t, s.Subjects().Create(ctx, &f.subject))

	f.algebra = content.Book{SubjectID: f.subject.ID, Name: content.Text{UK: "Алгебра"}}
	f.geometry = content.Book{SubjectID: f.subject.ID, Name: content.Text{UK: "Геометрія"}}
	require.NoError(t, s.Books().Create(ctx, &f.algebra))
	require.NoError(t, s.Books().Create(ctx, &f.geometry))

	f.fractions = content.Topic{BookID: f.algebra.ID, Name: content.Text{UK: "Дроби"}}
	f.angles = content.Topic{BookID: f.geometry.ID, Name: content.Text{UK: "Кути"}}
	require.NoError(t, s.Topics().Create(ctx, &f.fractions))
	require.NoError(t, s.Topics().Create(ctx, &f.angles))
	return f
}

func (f *fixture) addQuestion(t *testing.T, topicID, levelID string) content.Question {
	t.Helper()
	q := content.Question{
		TopicID: topicID,
		LevelID: levelID,
		Text:    content.Text{UK: "Питання " + uuid.NewString()[:8]},
		Answers: []content.Answer{
			{Text: content.Text{UK: "так"}, Correct: true},
			{Text: content.Text{UK: "ні"}},
		},
	}
	err := f.store.WithTx(context.Background(), func(tx *store.Tx) error {
		return tx.Questions().Create(context.Background(), &q)
	})
	require.NoError(t, err)
	return q
}

func correctIDs(q content.Question) []string {
	var ids []string
	for _, a := range q.Answers {
		if a.Correct {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func levelByCode(levels []LevelScore, code string) LevelScore {
	for _, l := range levels {
		if l.LevelCode == code {
			return l
		}
	}
	return LevelScore{}
}

func subjectRows(t *testing.T, f *fixture) map[string]store.SubjectScore {
	t.Helper()
	rows, err := f.store.Progress().SubjectScores(context.Background(), f.user.ID)
	require.NoError(t, err)
	out := make(map[string]store.SubjectScore, len(rows))
	for _, r := range rows {
		out[r.LevelID] = r
	}
	return out
}

func TestStartLearningBookBuildsRowsPerLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q1 := f.addQuestion(t, f.fractions.ID, f.basic.ID)
	f.addQuestion(t, f.fractions.ID, f.basic.ID)
	f.addQuestion(t, f.fractions.ID, f.advanced.ID)

	// Answers given before starting count once the book is learned.
	_, err := f.svc.RecordAnswer(ctx, f.user.ID, q1.ID, correctIDs(q1))
	require.NoError(t, err)

	bp, err := f.svc.StartLearningBook(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)
	require.Len(t, bp.Levels, 2, "one row per level")
	assert.Equal(t, LevelScore{
		LevelID: f.basic.ID, LevelCode: "basic", LevelName: f.basic.Name,
		Score: 1, Total: 2, Percent: 50,
	}, levelByCode(bp.Levels, "basic"))
	assert.Equal(t, 0, levelByCode(bp.Levels, "advanced").Score)
	assert.Equal(t, 1, levelByCode(bp.Levels, "advanced").Total)
	assert.Equal(t, 1, bp.Score)
	assert.Equal(t, 3, bp.Total)
	assert.Equal(t, 33, bp.Percent)

	rows := subjectRows(t, f)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[f.basic.ID].Score)
	assert.Equal(t, 2, rows[f.basic.ID].Total)

	// Starting again is idempotent.
	again, err := f.svc.StartLearningBook(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)
	assert.Equal(t, bp.Levels, again.Levels)
	n, err := f.store.Progress().CountLearning(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStartLearningUnknownBook(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StartLearningBook(context.Background(), f.user.ID, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubjectRowsSumBooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addQuestion(t, f.fractions.ID, f.basic.ID)
	g := f.addQuestion(t, f.angles.ID, f.basic.ID)
	f.addQuestion(t, f.angles.ID, f.advanced.ID)

	_, err := f.svc.StartLearningBook(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)
	_, err = f.svc.StartLearningBook(ctx, f.user.ID, f.geometry.ID)
	require.NoError(t, err)

	res, err := f.svc.RecordAnswer(ctx, f.user.ID, g.ID, correctIDs(g))
	require.NoError(t, err)
	assert.True(t, res.Correct)
	require.NotNil(t, res.Book)
	assert.Equal(t, f.geometry.ID, res.Book.Book.ID)
	assert.Equal(t, 1, res.Book.Score)

	rows := subjectRows(t, f)
	assert.Equal(t, 1, rows[f.basic.ID].Score)
	assert.Equal(t, 2, rows[f.basic.ID].Total)
	assert.Equal(t, 1, rows[f.advanced.ID].Total)

	// Stopping one book leaves the other's sums.
	require.NoError(t, f.svc.StopLearningBook(ctx, f.user.ID, f.geometry.ID))
	rows = subjectRows(t, f)
	assert.Equal(t, 0, rows[f.basic.ID].Score)
	assert.Equal(t, 1, rows[f.basic.ID].Total)
	assert.Equal(t, 0, rows[f.advanced.ID].Total)

	scores, err := f.store.Progress().BookScores(ctx, f.user.ID, f.geometry.ID)
	require.NoError(t, err)
	assert.Empty(t, scores)

	// Stopping the last book removes the subject rows.
	require.NoError(t, f.svc.StopLearningBook(ctx, f.user.ID, f.algebra.ID))
	assert.Empty(t, subjectRows(t, f))

	// History survives: restarting restores the score.
	bp, err := f.svc.StartLearningBook(ctx, f.user.ID, f.geometry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bp.Score)
}

func TestStopLearningNotLearning(t *testing.T) {
	f := newFixture(t)
	err := f.svc.StopLearningBook(context.Background(), f.user.ID, f.algebra.ID)
	assert.ErrorIs(t, err, ErrNotLearning)
}

func TestRecordAnswerWrongSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(t, f.fractions.ID, f.basic.ID)

	res, err := f.svc.RecordAnswer(ctx, f.user.ID, q.ID, []string{q.Answers[1].ID})
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, correctIDs(q), res.CorrectAnswerIDs)
	assert.Nil(t, res.Book, "not learning the book")

	_, err = f.svc.RecordAnswer(ctx, f.user.ID, uuid.NewString(), nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshAfterContentChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addQuestion(t, f.fractions.ID, f.basic.ID)
	_, err := f.svc.StartLearningBook(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)

	f.addQuestion(t, f.fractions.ID, f.basic.ID)
	require.NoError(t, f.svc.Refresh(ctx, f.algebra.ID))
	assert.Equal(t, 2, subjectRows(t, f)[f.basic.ID].Total)

	// A new level gets rows on RefreshAll.
	expert := content.Level{Code: "expert", Name: content.Text{UK: "Експерт"}}
	require.NoError(t, f.store.Levels().Create(ctx, &expert))
	require.NoError(t, f.svc.RefreshAll(ctx))
	scores, err := f.store.Progress().BookScores(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)
	assert.Len(t, scores, 3)

	assert.NoError(t, f.svc.Refresh(ctx, uuid.NewString()), "unknown book is ignored")
}

func TestRefreshBookSharesTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addQuestion(t, f.fractions.ID, f.basic.ID)
	_, err := f.svc.StartLearningBook(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)

	newQuestion := func() *content.Question {
		return &content.Question{
			TopicID: f.fractions.ID,
			LevelID: f.basic.ID,
			Text:    content.Text{UK: "Питання " + uuid.NewString()[:8]},
			Answers: []content.Answer{{Text: content.Text{UK: "так"}, Correct: true}, {Text: content.Text{UK: "ні"}}},
		}
	}

	errAbort := errors.New("abort")
	err = f.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Questions().Create(ctx, newQuestion()); err != nil {
			return err
		}
		if err := RefreshBook(ctx, tx, f.algebra.ID); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	assert.Equal(t, 1, subjectRows(t, f)[f.basic.ID].Total, "rolled back with the question")
	all, err := f.store.Questions().ListByTopic(ctx, f.fractions.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = f.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Questions().Create(ctx, newQuestion()); err != nil {
			return err
		}
		return RefreshBook(ctx, tx, f.algebra.ID)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, subjectRows(t, f)[f.basic.ID].Total)

	expert := content.Level{Code: "expert", Name: content.Text{UK: "Експерт"}}
	err = f.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Levels().Create(ctx, &expert); err != nil {
			return err
		}
		return RefreshBooks(ctx, tx)
	})
	require.NoError(t, err)
	scores, err := f.store.Progress().BookScores(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)
	assert.Len(t, scores, 3)
}

func TestDeleteBookRebuildsSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addQuestion(t, f.fractions.ID, f.basic.ID)
	f.addQuestion(t, f.angles.ID, f.basic.ID)
	_, err := f.svc.StartLearningBook(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)
	_, err = f.svc.StartLearningBook(ctx, f.user.ID, f.geometry.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBook(ctx, f.geometry.ID))
	assert.Equal(t, 1, subjectRows(t, f)[f.basic.ID].Total)

	require.NoError(t, f.svc.DeleteBook(ctx, f.algebra.ID))
	assert.Empty(t, subjectRows(t, f))
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.addQuestion(t, f.fractions.ID, f.basic.ID)
	f.addQuestion(t, f.fractions.ID, f.advanced.ID)

	ov, err := f.svc.Overview(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, ov.Books)
	assert.Empty(t, ov.Subjects)

	_, err = f.svc.StartLearningBook(ctx, f.user.ID, f.algebra.ID)
	require.NoError(t, err)
	_, err = f.svc.RecordAnswer(ctx, f.user.ID, q.ID, correctIDs(q))
	require.NoError(t, err)

	ov, err = f.svc.Overview(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, ov.Books, 1)
	assert.Equal(t, f.algebra.ID, ov.Books[0].Book.ID)
	assert.Equal(t, 50, ov.Books[0].Percent)
	require.Len(t, ov.Subjects, 1)
	assert.Equal(t, "math", ov.Subjects[0].Subject.Slug)
	assert.Equal(t, 100, levelByCode(ov.Subjects[0].Levels, "basic").Percent)
	assert.Equal(t, 0, levelByCode(ov.Subjects[0].Levels, "advanced").Percent)
}
