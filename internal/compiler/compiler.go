// Package compiler renders book content into distributable artifacts: a
// print-ready HTML document and an EPUB file.
package compiler

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	epub "github.com/go-shiori/go-epub"

	"github.com/jackzampolin/folio/internal/book"
)

// pageCSS is embedded in the HTML artifact. Page breaks before chapters keep
// the print/PDF rendition clean.
const pageCSS = `body {
  font-family: Georgia, 'Times New Roman', serif;
  line-height: 1.6;
  max-width: 42em;
  margin: 0 auto;
  padding: 2em;
  color: #1a1a1a;
}
.cover {
  text-align: center;
  page-break-after: always;
  padding-top: 20%;
}
.cover h1 { font-size: 2.4em; margin-bottom: 0.3em; }
.cover .author { font-size: 1.2em; color: #555; }
.chapter { page-break-before: always; }
.chapter h1 { font-size: 1.8em; border-bottom: 1px solid #ccc; padding-bottom: 0.3em; }
.chapter h2 { font-size: 1.3em; margin-top: 1.6em; color: #333; }
.chapter p { text-align: justify; }`

// CompileHTML renders the book as a single self-contained HTML document.
// Output is deterministic for a given book: same input, same bytes.
func CompileHTML(b *book.Book) string {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&sb, "<html lang=%q>\n<head>\n<meta charset=\"utf-8\">\n", b.Language)
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(b.Title))
	fmt.Fprintf(&sb, "<style>\n%s\n</style>\n</head>\n<body>\n", pageCSS)

	// Cover page
	sb.WriteString("<div class=\"cover\">\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(b.Title))
	if b.Author != "" {
		fmt.Fprintf(&sb, "<p class=\"author\">%s</p>\n", html.EscapeString(b.Author))
	}
	sb.WriteString("</div>\n")

	for i, ch := range b.Chapters {
		sb.WriteString("<div class=\"chapter\">\n")
		fmt.Fprintf(&sb, "<h1>%d. %s</h1>\n", i+1, html.EscapeString(ch.Title))
		for _, key := range book.SectionKeys() {
			text := ch.Section(key)
			if text == "" {
				continue
			}
			fmt.Fprintf(&sb, "<h2>%s</h2>\n", html.EscapeString(book.SectionHeading(key)))
			writeParagraphs(&sb, text)
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// writeParagraphs splits section text on blank lines into <p> elements.
func writeParagraphs(sb *strings.Builder, text string) {
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		fmt.Fprintf(sb, "<p>%s</p>\n", html.EscapeString(para))
	}
}

// CompileEPUB renders the book as an EPUB and returns the file bytes.
func CompileEPUB(b *book.Book) ([]byte, error) {
	e, err := epub.NewEpub(b.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to create epub: %w", err)
	}
	if b.Author != "" {
		e.SetAuthor(b.Author)
	}
	if b.Language != "" {
		e.SetLang(b.Language)
	} else {
		e.SetLang("en")
	}

	for i, ch := range b.Chapters {
		title := fmt.Sprintf("%d. %s", i+1, ch.Title)

		var body strings.Builder
		fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(title))
		for _, key := range book.SectionKeys() {
			text := ch.Section(key)
			if text == "" {
				continue
			}
			fmt.Fprintf(&body, "<h2>%s</h2>\n", html.EscapeString(book.SectionHeading(key)))
			writeParagraphs(&body, text)
		}

		if _, err := e.AddSection(body.String(), title, "", ""); err != nil {
			return nil, fmt.Errorf("failed to add chapter %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write epub: %w", err)
	}
	return buf.Bytes(), nil
}
