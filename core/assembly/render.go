package assembly

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/nexus-reussite/backend/core/content"
)

// markdown is the shared converter for document bodies. Brick contents are
// authored in markdown, so the whole assembled document goes through a real
// parser rather than ad-hoc string substitution.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// renderMarkdown lays the ordered brick pool out as one markdown document:
// header block, typed sections in fixed display order, footer.
func (e *Engine) renderMarkdown(doc GeneratedDocument, ordered []content.Brick) string {
	var sb strings.Builder

	// header
	fmt.Fprintf(&sb, "# %s\n\n", doc.Title)
	fmt.Fprintf(&sb, "**Matière :** %s  \n", subjectLabel(doc.Request.Subject))
	fmt.Fprintf(&sb, "**Chapitre :** %s  \n", doc.Request.Chapter)
	fmt.Fprintf(&sb, "**Profil :** %s  \n", profileLabel(doc.Request.StudentProfile))
	fmt.Fprintf(&sb, "**Durée estimée :** %d min  \n", doc.EstimatedDuration)
	fmt.Fprintf(&sb, "**Généré le :** %s\n", doc.GeneratedAt.Format("02/01/2006 à 15:04"))

	// sections
	byType := make(map[content.BrickType][]content.Brick)
	for _, b := range ordered {
		byType[b.Type] = append(byType[b.Type], b)
	}
	for _, t := range sectionOrder {
		bricks := byType[t]
		if len(bricks) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n---\n\n## %s\n", sectionTitles[t])
		for i, b := range bricks {
			if len(bricks) > 1 {
				fmt.Fprintf(&sb, "\n### %d. %s\n\n", i+1, b.Title)
			} else {
				fmt.Fprintf(&sb, "\n### %s\n\n", b.Title)
			}
			sb.WriteString(strings.TrimSpace(b.Content))
			sb.WriteString("\n")
		}
	}

	// footer
	fmt.Fprintf(&sb, "\n---\n\n*%d contenu(s)", len(ordered))
	if authors := distinctAuthors(ordered); len(authors) > 0 {
		fmt.Fprintf(&sb, " — Auteurs : %s", strings.Join(authors, ", "))
	}
	sb.WriteString("*\n")

	return sb.String()
}

func renderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// distinctAuthors returns the contributing author names, deduplicated,
// in first-appearance order.
func distinctAuthors(bricks []content.Brick) []string {
	seen := make(map[string]bool, len(bricks))
	var authors []string
	for _, b := range bricks {
		if b.AuthorName == "" || seen[b.AuthorName] {
			continue
		}
		seen[b.AuthorName] = true
		authors = append(authors, b.AuthorName)
	}
	return authors
}

func subjectLabel(s content.Subject) string {
	if label, ok := subjectLabels[s]; ok {
		return label
	}
	return string(s)
}

func profileLabel(p content.Profile) string {
	if label, ok := profileLabels[p]; ok {
		return label
	}
	return string(p)
}
