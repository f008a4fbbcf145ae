package suggest

import "github.com/abhisek/pidruchnyk/internal/llm"

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func obj(props map[string]any, required ...any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

var topicsSchema = &llm.Schema{
	Name:        "topic-suggestions",
	Description: "New topics for a textbook",
	Definition: obj(map[string]any{
		"topics": map[string]any{
			"type": "array",
			"items": obj(map[string]any{
				"name_uk": str("Topic title in Ukrainian"),
				"name_en": str("The same title in English"),
			}, "name_uk", "name_en"),
		},
	}, "topics"),
}

var questionsSchema = &llm.Schema{
	Name:        "question-suggestions",
	Description: "Multiple-choice quiz questions for a topic",
	Definition: obj(map[string]any{
		"questions": map[string]any{
			"type": "array",
			"items": obj(map[string]any{
				"text_uk":        str("Question text in Ukrainian"),
				"text_en":        str("The same question in English"),
				"explanation_uk": str("Why the correct answers are correct, in Ukrainian"),
				"explanation_en": str("The same explanation in English"),
				"answers": map[string]any{
					"type":     "array",
					"minItems": 2,
					"items": obj(map[string]any{
						"text_uk": str("Answer option in Ukrainian"),
						"text_en": str("The same option in English"),
						"correct": map[string]any{"type": "boolean"},
					}, "text_uk", "text_en", "correct"),
				},
			}, "text_uk", "text_en", "explanation_uk", "explanation_en", "answers"),
		},
	}, "questions"),
}

var theorySchema = &llm.Schema{
	Name:        "theory-suggestion",
	Description: "Theory section of a topic in markdown",
	Definition: obj(map[string]any{
		"theory_uk": str("Markdown theory in Ukrainian"),
		"theory_en": str("The same theory in English"),
	}, "theory_uk", "theory_en"),
}

type topicsOutput struct {
	Topics []struct {
		NameUK string `json:"name_uk"`
		NameEN string `json:"name_en"`
	} `json:"topics"`
}

type questionsOutput struct {
	Questions []struct {
		TextUK        string `json:"text_uk"`
		TextEN        string `json:"text_en"`
		ExplanationUK string `json:"explanation_uk"`
		ExplanationEN string `json:"explanation_en"`
		Answers       []struct {
			TextUK  string `json:"text_uk"`
			TextEN  string `json:"text_en"`
			Correct bool   `json:"correct"`
		} `json:"answers"`
	} `json:"questions"`
}

type theoryOutput struct {
	TheoryUK string `json:"theory_uk"`
	TheoryEN string `json:"theory_en"`
}
