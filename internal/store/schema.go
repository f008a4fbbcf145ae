package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions consumed by the ent migrator. Column order matters:
// primary keys and foreign keys below index into these slices.

func textColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 2147483647, Default: ""}
}

func stringColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Default: ""}
}

func idColumn(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 36}
}

var (
	LevelsColumns = []*schema.Column{
		idColumn("id"),
		{Name: "code", Type: field.TypeString, Size: 64, Unique: true},
		stringColumn("name_uk"),
		stringColumn("name_en"),
		{Name: "position", Type: field.TypeInt, Default: 0},
	}
	LevelsTable = &schema.Table{
		Name:       "levels",
		Columns:    LevelsColumns,
		PrimaryKey: []*schema.Column{LevelsColumns[0]},
	}

	SubjectsColumns = []*schema.Column{
		idColumn("id"),
		{Name: "slug", Type: field.TypeString, Size: 128, Unique: true},
		stringColumn("name_uk"),
		stringColumn("name_en"),
		textColumn("description_uk"),
		textColumn("description_en"),
		stringColumn("cover_key"),
		stringColumn("cover_url"),
		{Name: "position", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	SubjectsTable = &schema.Table{
		Name:       "subjects",
		Columns:    SubjectsColumns,
		PrimaryKey: []*schema.Column{SubjectsColumns[0]},
	}

	BooksColumns = []*schema.Column{
		idColumn("id"),
		idColumn("subject_id"),
		stringColumn("name_uk"),
		stringColumn("name_en"),
		textColumn("description_uk"),
		textColumn("description_en"),
		stringColumn("author"),
		stringColumn("cover_key"),
		stringColumn("cover_url"),
		{Name: "position", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	BooksTable = &schema.Table{
		Name:       "books",
		Columns:    BooksColumns,
		PrimaryKey: []*schema.Column{BooksColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "books_subjects_books",
				Columns:    []*schema.Column{BooksColumns[1]},
				RefColumns: []*schema.Column{SubjectsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "book_subject_id", Columns: []*schema.Column{BooksColumns[1]}},
		},
	}

	TopicsColumns = []*schema.Column{
		idColumn("id"),
		idColumn("book_id"),
		stringColumn("name_uk"),
		stringColumn("name_en"),
		textColumn("theory_uk"),
		textColumn("theory_en"),
		{Name: "position", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	TopicsTable = &schema.Table{
		Name:       "topics",
		Columns:    TopicsColumns,
		PrimaryKey: []*schema.Column{TopicsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "topics_books_topics",
				Columns:    []*schema.Column{TopicsColumns[1]},
				RefColumns: []*schema.Column{BooksColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "topic_book_id_name_uk", Unique: true, Columns: []*schema.Column{TopicsColumns[1], TopicsColumns[2]}},
		},
	}

	QuestionsColumns = []*schema.Column{
		idColumn("id"),
		idColumn("topic_id"),
		idColumn("level_id"),
		textColumn("text_uk"),
		textColumn("text_en"),
		textColumn("explanation_uk"),
		textColumn("explanation_en"),
		{Name: "position", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	QuestionsTable = &schema.Table{
		Name:       "questions",
		Columns:    QuestionsColumns,
		PrimaryKey: []*schema.Column{QuestionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_topics_questions",
				Columns:    []*schema.Column{QuestionsColumns[1]},
				RefColumns: []*schema.Column{TopicsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "questions_levels_questions",
				Columns:    []*schema.Column{QuestionsColumns[2]},
				RefColumns: []*schema.Column{LevelsColumns[0]},
				OnDelete:   schema.Restrict,
			},
		},
		Indexes: []*schema.Index{
			{Name: "question_topic_id", Columns: []*schema.Column{QuestionsColumns[1]}},
			{Name: "question_level_id", Columns: []*schema.Column{QuestionsColumns[2]}},
		},
	}

	AnswersColumns = []*schema.Column{
		idColumn("id"),
		idColumn("question_id"),
		textColumn("text_uk"),
		textColumn("text_en"),
		{Name: "correct", Type: field.TypeBool, Default: false},
		{Name: "position", Type: field.TypeInt, Default: 0},
	}
	AnswersTable = &schema.Table{
		Name:       "answers",
		Columns:    AnswersColumns,
		PrimaryKey: []*schema.Column{AnswersColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "answers_questions_answers",
				Columns:    []*schema.Column{AnswersColumns[1]},
				RefColumns: []*schema.Column{QuestionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "answer_question_id", Columns: []*schema.Column{AnswersColumns[1]}},
		},
	}

	UsersColumns = []*schema.Column{
		idColumn("id"),
		{Name: "email", Type: field.TypeString, Size: 320, Unique: true},
		stringColumn("display_name"),
		{Name: "role", Type: field.TypeString, Size: 16, Default: "user"},
		stringColumn("password_hash"),
		{Name: "created_at", Type: field.TypeTime},
	}
	UsersTable = &schema.Table{
		Name:       "users",
		Columns:    UsersColumns,
		PrimaryKey: []*schema.Column{UsersColumns[0]},
	}

	UserBooksColumns = []*schema.Column{
		idColumn("user_id"),
		idColumn("book_id"),
		{Name: "started_at", Type: field.TypeTime},
	}
	UserBooksTable = &schema.Table{
		Name:       "user_books",
		Columns:    UserBooksColumns,
		PrimaryKey: []*schema.Column{UserBooksColumns[0], UserBooksColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "user_books_users",
				Columns:    []*schema.Column{UserBooksColumns[0]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_books_books",
				Columns:    []*schema.Column{UserBooksColumns[1]},
				RefColumns: []*schema.Column{BooksColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	UserBookScoresColumns = []*schema.Column{
		idColumn("user_id"),
		idColumn("book_id"),
		idColumn("level_id"),
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "total", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UserBookScoresTable = &schema.Table{
		Name:       "user_book_scores",
		Columns:    UserBookScoresColumns,
		PrimaryKey: []*schema.Column{UserBookScoresColumns[0], UserBookScoresColumns[1], UserBookScoresColumns[2]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "user_book_scores_users",
				Columns:    []*schema.Column{UserBookScoresColumns[0]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_book_scores_books",
				Columns:    []*schema.Column{UserBookScoresColumns[1]},
				RefColumns: []*schema.Column{BooksColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_book_scores_levels",
				Columns:    []*schema.Column{UserBookScoresColumns[2]},
				RefColumns: []*schema.Column{LevelsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	UserSubjectScoresColumns = []*schema.Column{
		idColumn("user_id"),
		idColumn("subject_id"),
		idColumn("level_id"),
		{Name: "score", Type: field.TypeInt, Default: 0},
		{Name: "total", Type: field.TypeInt, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UserSubjectScoresTable = &schema.Table{
		Name:       "user_subject_scores",
		Columns:    UserSubjectScoresColumns,
		PrimaryKey: []*schema.Column{UserSubjectScoresColumns[0], UserSubjectScoresColumns[1], UserSubjectScoresColumns[2]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "user_subject_scores_users",
				Columns:    []*schema.Column{UserSubjectScoresColumns[0]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_subject_scores_subjects",
				Columns:    []*schema.Column{UserSubjectScoresColumns[1]},
				RefColumns: []*schema.Column{SubjectsColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_subject_scores_levels",
				Columns:    []*schema.Column{UserSubjectScoresColumns[2]},
				RefColumns: []*schema.Column{LevelsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	UserQuestionResultsColumns = []*schema.Column{
		idColumn("user_id"),
		idColumn("question_id"),
		{Name: "correct", Type: field.TypeBool, Default: false},
		{Name: "answered_at", Type: field.TypeTime},
	}
	UserQuestionResultsTable = &schema.Table{
		Name:       "user_question_results",
		Columns:    UserQuestionResultsColumns,
		PrimaryKey: []*schema.Column{UserQuestionResultsColumns[0], UserQuestionResultsColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "user_question_results_users",
				Columns:    []*schema.Column{UserQuestionResultsColumns[0]},
				RefColumns: []*schema.Column{UsersColumns[0]},
				OnDelete:   schema.Cascade,
			},
			{
				Symbol:     "user_question_results_questions",
				Columns:    []*schema.Column{UserQuestionResultsColumns[1]},
				RefColumns: []*schema.Column{QuestionsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		stringColumn("provider"),
		stringColumn("model"),
		stringColumn("purpose"),
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool, Default: false},
		textColumn("error_message"),
		textColumn("request_body"),
		textColumn("response_body"),
	}
	LLMRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LLMRequestEventsColumns[1]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LLMRequestEventsColumns[4]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		LevelsTable,
		SubjectsTable,
		BooksTable,
		TopicsTable,
		QuestionsTable,
		AnswersTable,
		UsersTable,
		UserBooksTable,
		UserBookScoresTable,
		UserSubjectScoresTable,
		UserQuestionResultsTable,
		LLMRequestEventsTable,
	}
)

func init() {
	BooksTable.ForeignKeys[0].RefTable = SubjectsTable
	TopicsTable.ForeignKeys[0].RefTable = BooksTable
	QuestionsTable.ForeignKeys[0].RefTable = TopicsTable
	QuestionsTable.ForeignKeys[1].RefTable = LevelsTable
	AnswersTable.ForeignKeys[0].RefTable = QuestionsTable
	UserBooksTable.ForeignKeys[0].RefTable = UsersTable
	UserBooksTable.ForeignKeys[1].RefTable = BooksTable
	UserBookScoresTable.ForeignKeys[0].RefTable = UsersTable
	UserBookScoresTable.ForeignKeys[1].RefTable = BooksTable
	UserBookScoresTable.ForeignKeys[2].RefTable = LevelsTable
	UserSubjectScoresTable.ForeignKeys[0].RefTable = UsersTable
	UserSubjectScoresTable.ForeignKeys[1].RefTable = SubjectsTable
	UserSubjectScoresTable.ForeignKeys[2].RefTable = LevelsTable
	UserQuestionResultsTable.ForeignKeys[0].RefTable = UsersTable
	UserQuestionResultsTable.ForeignKeys[1].RefTable = QuestionsTable
}
