package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pidruchnyk/internal/content"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

// fixture is a small content tree: one subject, one book, one topic and
// two levels.
type fixture struct {
	basic, advanced content.Level
	subject         content.Subject
	book            content.Book
	topic           content.Topic
}

func seedFixture(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		basic:    content.Level{Code: "basic", Name: content.Text{UK: "Базовий", EN: "Basic"}},
		advanced: content.Level{Code: "advanced", Name: content.Text{UK: "Поглиблений", EN: "Advanced"}},
		subject:  content.Subject{Slug: "math", Name: content.Text{UK: "Математика", EN: "Math"}},
	}
	require.NoError(t, s.Levels().Create(ctx, &f.basic))
	require.NoError(t, s.Levels().Create(ctx, &f.advanced))
	require.NoError(t, s.Subjects().Create(ctx, &f.subject))

	f.book = content.Book{SubjectID: f.subject.ID, Name: content.Text{UK: "Алгебра", EN: "Algebra"}}
	require.NoError(t, s.Books().Create(ctx, &f.book))

	f.topic = content.Topic{BookID: f.book.ID, Name: content.Text{UK: "Дроби", EN: "Fractions"}}
	require.NoError(t, s.Topics().Create(ctx, &f.topic))
	return f
}

func addQuestion(t *testing.T, s *Store, topicID, levelID, text string) content.Question {
	t.Helper()
	q := content.Question{
		TopicID: topicID,
		LevelID: levelID,
		Text:    content.Text{UK: text},
		Answers: []content.Answer{
			{Text: content.Text{UK: "так"}, Correct: true},
			{Text: content.Text{UK: "ні"}},
		},
	}
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return tx.Questions().Create(context.Background(), &q)
	})
	require.NoError(t, err)
	return q
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode stays "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, s.DB().QueryRow("PRAGMA "+tt.pragma).Scan(&got))
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestLevelCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Levels()

	basic := content.Level{Code: "basic", Name: content.Text{UK: "Базовий", EN: "Basic"}}
	require.NoError(t, repo.Create(ctx, &basic))
	assert.NotEmpty(t, basic.ID)
	assert.Equal(t, 1, basic.Position)

	adv := content.Level{Code: "advanced"}
	require.NoError(t, repo.Create(ctx, &adv))
	assert.Equal(t, 2, adv.Position, "positions continue from the max")

	dup := content.Level{Code: "basic"}
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrConflict)

	got, err := repo.GetByCode(ctx, "basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic", got.Name.EN)

	got.Name.EN = "Foundation"
	require.NoError(t, repo.Update(ctx, got))

	levels, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "Foundation", levels[0].Name.EN)

	require.NoError(t, repo.Delete(ctx, adv.ID))
	_, err = repo.Get(ctx, adv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, adv.ID), ErrNotFound)
}

func TestLevelDeleteRestrictedByQuestions(t *testing.T) {
	s := openTestStore(t)
	f := seedFixture(t, s)
	addQuestion(t, s, f.topic.ID, f.basic.ID, "1/2 > 1/3?")

	err := s.Levels().Delete(context.Background(), f.basic.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSubjectSlugUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := content.Subject{Slug: "math"}
	require.NoError(t, s.Subjects().Create(ctx, &a))
	b := content.Subject{Slug: "math"}
	assert.ErrorIs(t, s.Subjects().Create(ctx, &b), ErrConflict)

	got, err := s.Subjects().GetBySlug(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestBookRequiresSubject(t *testing.T) {
	s := openTestStore(t)
	b := content.Book{SubjectID: uuid.NewString()}
	assert.ErrorIs(t, s.Books().Create(context.Background(), &b), ErrConflict)
}

func TestTopicNameUniquePerBook(t *testing.T) {
	s := openTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	dup := content.Topic{BookID: f.book.ID, Name: content.Text{UK: "Дроби"}}
	assert.ErrorIs(t, s.Topics().Create(ctx, &dup), ErrConflict)

	other := content.Topic{BookID: f.book.ID, Name: content.Text{UK: "Рівняння"}}
	require.NoError(t, s.Topics().Create(ctx, &other))
	assert.Equal(t, 2, other.Position)
}

func TestSubjectDeleteCascades(t *testing.T) {
	s := openTestStore(t)
	f := seedFixture(t, s)
	q := addQuestion(t, s, f.topic.ID, f.basic.ID, "2+2=4?")
	ctx := context.Background()

	require.NoError(t, s.Subjects().Delete(ctx, f.subject.ID))

	_, err := s.Books().Get(ctx, f.book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Topics().Get(ctx, f.topic.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Questions().Get(ctx, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestionWithAnswers(t *testing.T) {
	s := openTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	q := addQuestion(t, s, f.topic.ID, f.basic.ID, "0 парне?")

	got, err := s.Questions().Get(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Answers, 2)
	assert.Equal(t, "так", got.Answers[0].Text.UK)
	assert.True(t, got.Answers[0].Correct)
	assert.Equal(t, 2, got.Answers[1].Position)

	bookID, err := s.Questions().BookID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, f.book.ID, bookID)

	got.Answers = []content.Answer{{Text: content.Text{UK: "завжди"}, Correct: true}}
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		return tx.Questions().Update(ctx, got)
	}))

	list, err := s.Questions().ListByTopic(ctx, f.topic.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Answers, 1)
	assert.Equal(t, "завжди", list[0].Answers[0].Text.UK)
}

func TestWithTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *Tx) error {
		l := content.Level{Code: "basic"}
		if err := tx.Levels().Create(ctx, &l); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	levels, err := s.Levels().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, levels)
}

func TestUserEmailCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := content.User{Email: "  Olena@Example.com ", DisplayName: "Olena"}
	require.NoError(t, s.Users().Create(ctx, &u))
	assert.Equal(t, "olena@example.com", u.Email)
	assert.Equal(t, content.RoleUser, u.Role)

	got, err := s.Users().GetByEmail(ctx, "OLENA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := content.User{Email: "olena@example.com"}
	assert.ErrorIs(t, s.Users().Create(ctx, &dup), ErrConflict)
}

func TestProgressCounts(t *testing.T) {
	s := openTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	u := content.User{Email: "a@example.com"}
	require.NoError(t, s.Users().Create(ctx, &u))

	q1 := addQuestion(t, s, f.topic.ID, f.basic.ID, "q1")
	q2 := addQuestion(t, s, f.topic.ID, f.basic.ID, "q2")
	addQuestion(t, s, f.topic.ID, f.advanced.ID, "q3")

	p := s.Progress()
	require.NoError(t, p.RecordResult(ctx, u.ID, q1.ID, true))
	require.NoError(t, p.RecordResult(ctx, u.ID, q2.ID, true))
	require.NoError(t, p.RecordResult(ctx, u.ID, q2.ID, false))

	totals, err := p.QuestionCounts(ctx, f.book.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []LevelCount{
		{LevelID: f.basic.ID, Count: 2},
		{LevelID: f.advanced.ID, Count: 1},
	}, totals)

	correct, err := p.CorrectCounts(ctx, u.ID, f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, []LevelCount{{LevelID: f.basic.ID, Count: 1}}, correct)

	created, err := p.StartBook(ctx, u.ID, f.book.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = p.StartBook(ctx, u.ID, f.book.ID)
	require.NoError(t, err)
	assert.False(t, created, "second start is a no-op")

	require.NoError(t, p.UpsertBookScore(ctx, BookScore{UserID: u.ID, BookID: f.book.ID, LevelID: f.basic.ID, Score: 1, Total: 2}))
	require.NoError(t, p.UpsertBookScore(ctx, BookScore{UserID: u.ID, BookID: f.book.ID, LevelID: f.basic.ID, Score: 2, Total: 2}))

	sums, err := p.SumBookScores(ctx, u.ID, f.subject.ID)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, 2, sums[0].Score)
	assert.Equal(t, 2, sums[0].Total)

	n, err := p.LearnedInSubject(ctx, u.ID, f.subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoError(t, p.StopBook(ctx, u.ID, f.book.ID))
	assert.ErrorIs(t, p.StopBook(ctx, u.ID, f.book.ID), ErrNotFound)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Events()

	for _, d := range []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "topic-suggest", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "topic-suggest", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "openai", Model: "gpt-4o", Purpose: "theory-suggest", ErrorMessage: "rate limited"},
	} {
		require.NoError(t, repo.AppendLLMRequest(ctx, d))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "theory-suggest", events[0].Purpose, "newest first")

	filtered, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "topic-suggest"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "rate limited", e.ErrorMessage)
	_, err = repo.GetLLMEvent(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, PurposeUsage{Purpose: "theory-suggest", Calls: 1}, byPurpose[0])
	assert.Equal(t, PurposeUsage{Purpose: "topic-suggest", Calls: 2, InputTokens: 400, OutputTokens: 200, AvgLatencyMs: 300}, byPurpose[1])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, "gpt-4o", byModel[0].Model)
}
