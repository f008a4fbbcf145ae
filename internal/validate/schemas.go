package validate

import "strings"

// Bilingual text fragments. Ukrainian is the primary language and required
// wherever a text is required; English is optional.
const (
	textRequired = `{"type":"object","properties":{"uk":{"type":"string","minLength":1,"pattern":"\\S","maxLength":MAX},"en":{"type":"string","maxLength":MAX}},"required":["uk"],"additionalProperties":false}`
	textOptional = `{"type":"object","properties":{"uk":{"type":"string","maxLength":MAX},"en":{"type":"string","maxLength":MAX}},"additionalProperties":false}`
)

func text(required bool, max string) string {
	t := textOptional
	if required {
		t = textRequired
	}
	return strings.ReplaceAll(t, "MAX", max)
}

var (
	nameText     = text(true, "200")
	longText     = text(false, "5000")
	questionText = text(true, "2000")
	answerText   = text(true, "500")
	theoryText   = text(false, "100000")
)

func object(props string, required ...string) string {
	req := "[]"
	if len(required) > 0 {
		req = `["` + strings.Join(required, `","`) + `"]`
	}
	return `{"type":"object","properties":{` + props + `},"required":` + req + `,"additionalProperties":false}`
}

const (
	slugProp     = `"slug":{"type":"string","pattern":"^[a-z0-9]+(-[a-z0-9]+)*$","maxLength":100}`
	codeProp     = `"code":{"type":"string","pattern":"^[a-z0-9_-]+$","minLength":1,"maxLength":64}`
	positionProp = `"position":{"type":"integer","minimum":0}`
	emailProp    = `"email":{"type":"string","format":"email","maxLength":320}`
	countProp    = `"count":{"type":"integer","minimum":1,"maximum":20}`
)

var answerSchema = object(`"text":`+answerText+`,"correct":{"type":"boolean"}`, "text")

// Request schemas.
var (
	Level = MustCompile("level", object(
		codeProp+`,"name":`+nameText+`,`+positionProp, "code", "name"))

	Subject = MustCompile("subject", object(
		slugProp+`,"name":`+nameText+`,"description":`+longText+`,`+positionProp, "slug", "name"))

	Book = MustCompile("book", object(
		`"name":`+nameText+`,"description":`+longText+
			`,"author":{"type":"string","maxLength":200},`+positionProp, "name"))

	Topic = MustCompile("topic", object(
		`"name":`+nameText+`,"theory":`+theoryText+`,`+positionProp, "name"))

	Question = MustCompile("question", object(
		`"level_id":{"type":"string","minLength":1},"text":`+questionText+
			`,"explanation":`+longText+`,`+positionProp+
			`,"answers":{"type":"array","minItems":2,"maxItems":10,"items":`+answerSchema+`}`,
		"level_id", "text", "answers"))

	Registration = MustCompile("registration", object(
		emailProp+`,"password":{"type":"string","minLength":8,"maxLength":200}`+
			`,"display_name":{"type":"string","maxLength":100}`, "email", "password"))

	Credentials = MustCompile("credentials", object(
		emailProp+`,"password":{"type":"string","minLength":1,"maxLength":200}`, "email", "password"))

	Attempt = MustCompile("attempt", object(
		`"answer_ids":{"type":"array","minItems":1,"items":{"type":"string","minLength":1}}`, "answer_ids"))

	TopicSuggestions = MustCompile("topic-suggestions-request", object(countProp))

	QuestionSuggestions = MustCompile("question-suggestions-request", object(
		`"level":{"type":"string","minLength":1},`+countProp, "level"))

	TheorySuggestion = MustCompile("theory-suggestion-request", object(""))

	ApplyTopics = MustCompile("apply-topics", object(
		`"suggestions":{"type":"array","minItems":1,"maxItems":50,"items":`+
			object(`"name":`+nameText+`,"duplicate":{"type":"boolean"},"existing_id":{"type":"string"}`, "name")+`}`,
		"suggestions"))

	ApplyQuestions = MustCompile("apply-questions", object(
		`"suggestions":{"type":"array","minItems":1,"maxItems":50,"items":`+
			object(`"level_id":{"type":"string","minLength":1},"text":`+questionText+
				`,"explanation":`+longText+
				`,"answers":{"type":"array","minItems":1,"maxItems":10,"items":`+answerSchema+`}`+
				`,"duplicate":{"type":"boolean"},"existing_id":{"type":"string"}`,
				"level_id", "text", "answers")+`}`,
		"suggestions"))

	ApplyTheory = MustCompile("apply-theory", object(
		`"theory":`+theoryText+
			`,"fields":{"type":"array","minItems":1,"uniqueItems":true,"items":{"enum":["uk","en"]}}`,
		"theory", "fields"))
)
