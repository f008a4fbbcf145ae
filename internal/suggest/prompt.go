package suggest

import (
	"fmt"
	"strings"

	"github.com/abhisek/pidruchnyk/internal/content"
)

const systemPrompt = `You are an experienced author of Ukrainian school textbooks. You write clear, factually correct material for students. Every text you produce is written in Ukrainian first and then translated faithfully into English.`

// maxTheoryContext caps how much existing theory is quoted back.
const maxTheoryContext = 4000

func writeContext(b *strings.Builder, subject *content.Subject, book *content.Book) {
	fmt.Fprintf(b, "Subject: %s\n", subject.Name.In(content.LangUK))
	fmt.Fprintf(b, "Book: %s\n", book.Name.In(content.LangUK))
	if book.Author != "" {
		fmt.Fprintf(b, "Author: %s\n", book.Author)
	}
	if d := book.Description.In(content.LangUK); d != "" {
		fmt.Fprintf(b, "Book description: %s\n", d)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(items) == 0 {
		b.WriteString("None\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func buildTopicsPrompt(subject *content.Subject, book *content.Book, existing []content.Topic, count int) string {
	var b strings.Builder
	writeContext(&b, subject, book)

	names := make([]string, len(existing))
	for i, t := range existing {
		names[i] = t.Name.In(content.LangUK)
	}
	writeList(&b, "Existing topics", names)

	fmt.Fprintf(&b, `
Instructions:
Suggest %d new topics for this book, in the order they should be taught.
Do not repeat or rephrase any existing topic.
Each topic title is short (at most 8 words) and has no numbering.`, count)
	return b.String()
}

func buildQuestionsPrompt(subject *content.Subject, book *content.Book, topic *content.Topic, level *content.Level, existing []content.Question, count int) string {
	var b strings.Builder
	writeContext(&b, subject, book)
	fmt.Fprintf(&b, "Topic: %s\n", topic.Name.In(content.LangUK))
	fmt.Fprintf(&b, "Difficulty level: %s (%s)\n", level.Name.In(content.LangUK), level.Code)
	if th := topic.Theory.In(content.LangUK); th != "" {
		fmt.Fprintf(&b, "\nTopic theory:\n%s\n", truncate(th, maxTheoryContext))
	}

	texts := make([]string, len(existing))
	for i, q := range existing {
		texts[i] = q.Text.In(content.LangUK)
	}
	writeList(&b, "Existing questions", texts)

	fmt.Fprintf(&b, `
Instructions:
Write %d new multiple-choice questions on this topic at the given difficulty level.
Do not repeat any existing question.
Each question has 3 to 5 answer options and at least one correct option.
Explain briefly why the correct options are correct.`, count)
	return b.String()
}

func buildTheoryPrompt(subject *content.Subject, book *content.Book, topic *content.Topic, siblings []content.Topic) string {
	var b strings.Builder
	writeContext(&b, subject, book)
	fmt.Fprintf(&b, "Topic: %s\n", topic.Name.In(content.LangUK))

	names := make([]string, 0, len(siblings))
	for _, t := range siblings {
		if t.ID != topic.ID {
			names = append(names, t.Name.In(content.LangUK))
		}
	}
	writeList(&b, "Other topics of the book", names)

	if th := topic.Theory.In(content.LangUK); th != "" {
		fmt.Fprintf(&b, "\nCurrent theory (improve and extend it):\n%s\n", truncate(th, maxTheoryContext))
	}

	b.WriteString(`
Instructions:
Write the theory section for this topic in markdown.
Use headings, short paragraphs, lists and at least one worked example.
Stay within this topic; other topics are covered separately.`)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
