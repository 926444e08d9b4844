// Package book defines the generated book content model shared by the
// generator, translator, and compiler.
package book

import (
	"encoding/json"
	"fmt"
)

// Section identifiers, in reading order. Every chapter carries all four.
const (
	SectionIntroduction      = "introduction"
	SectionDevelopment       = "development"
	SectionPracticalExamples = "practical_examples"
	SectionConclusion        = "conclusion"
)

// SectionKeys returns the chapter section identifiers in reading order.
func SectionKeys() []string {
	return []string{
		SectionIntroduction,
		SectionDevelopment,
		SectionPracticalExamples,
		SectionConclusion,
	}
}

// SectionHeading returns the human-readable heading for a section key.
func SectionHeading(key string) string {
	switch key {
	case SectionIntroduction:
		return "Introduction"
	case SectionDevelopment:
		return "Development"
	case SectionPracticalExamples:
		return "Practical Examples"
	case SectionConclusion:
		return "Conclusion"
	default:
		return key
	}
}

// Chapter is one chapter with its four fixed sections.
type Chapter struct {
	Title             string `json:"title"`
	Introduction      string `json:"introduction"`
	Development       string `json:"development"`
	PracticalExamples string `json:"practical_examples"`
	Conclusion        string `json:"conclusion"`
}

// Section returns the text of a section by key.
func (c *Chapter) Section(key string) string {
	switch key {
	case SectionIntroduction:
		return c.Introduction
	case SectionDevelopment:
		return c.Development
	case SectionPracticalExamples:
		return c.PracticalExamples
	case SectionConclusion:
		return c.Conclusion
	default:
		return ""
	}
}

// SetSection sets the text of a section by key.
func (c *Chapter) SetSection(key, text string) {
	switch key {
	case SectionIntroduction:
		c.Introduction = text
	case SectionDevelopment:
		c.Development = text
	case SectionPracticalExamples:
		c.PracticalExamples = text
	case SectionConclusion:
		c.Conclusion = text
	}
}

// Book is the complete generated content for one language.
type Book struct {
	Title    string    `json:"title"`
	Theme    string    `json:"theme"`
	Author   string    `json:"author"`
	Language string    `json:"language"`
	Chapters []Chapter `json:"chapters"`
}

// Encode serializes the book for storage in the ebook content column.
func (b *Book) Encode() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to encode book: %w", err)
	}
	return string(data), nil
}

// Decode deserializes a book from the ebook content column.
func Decode(data string) (*Book, error) {
	var b Book
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode book: %w", err)
	}
	return &b, nil
}
