package content

import "time"

// Role values for User.Role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Level is a difficulty tier. Questions belong to exactly one level and
// learning progress is aggregated per level.
type Level struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     Text   `json:"name"`
	Position int    `json:"position"`
}

// Subject is the top of the content hierarchy.
type Subject struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        Text      `json:"name"`
	Description Text      `json:"description"`
	CoverKey    string    `json:"-"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Book belongs to a Subject.
type Book struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Name        Text      `json:"name"`
	Description Text      `json:"description"`
	Author      string    `json:"author,omitempty"`
	CoverKey    string    `json:"-"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Topic belongs to a Book. Theory is markdown.
type Topic struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Name      Text      `json:"name"`
	Theory    Text      `json:"theory"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Question is a quiz question with one or more correct answers.
type Question struct {
	ID          string    `json:"id"`
	TopicID     string    `json:"topic_id"`
	LevelID     string    `json:"level_id"`
	Text        Text      `json:"text"`
	Explanation Text      `json:"explanation"`
	Position    int       `json:"position"`
	Answers     []Answer  `json:"answers"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Answer is one option of a Question.
type Answer struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       Text   `json:"text"`
	Correct    bool   `json:"correct"`
	Position   int    `json:"position"`
}

// User is an account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may curate content.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsCorrect reports whether selected is exactly the set of correct answer IDs.
// Duplicate IDs in selected are ignored; unknown IDs make the selection wrong.
func (q *Question) IsCorrect(selected []string) bool {
	correct := make(map[string]bool, len(q.Answers))
	for _, a := range q.Answers {
		correct[a.ID] = a.Correct
	}

	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		isCorrect, known := correct[id]
		if !known || !isCorrect {
			return false
		}
		seen[id] = true
	}

	for id, isCorrect := range correct {
		if isCorrect && !seen[id] {
			return false
		}
	}
	return len(seen) > 0
}
