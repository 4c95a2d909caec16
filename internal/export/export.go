// Package export renders conversations and research reports to portable
// formats for download.
package export

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/harutofu/shiori/internal/store"
)

var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// TranscriptMarkdown renders a conversation as a markdown transcript.
func TranscriptMarkdown(conv *store.Conversation, messages []store.Message) string {
	var b strings.Builder
	heading := conv.Title
	if heading == "" {
		heading = conv.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", heading)
	if conv.Summary != "" {
		fmt.Fprintf(&b, "> %s\n\n", conv.Summary)
	}
	for _, m := range messages {
		label := "User"
		if m.Role == "assistant" {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "## %s (%s)\n\n%s\n\n", label, m.CreatedAt.Format("2006-01-02 15:04"), m.Content)
	}
	return b.String()
}

// TranscriptPDF renders a conversation transcript as a PDF.
func TranscriptPDF(w io.Writer, conv *store.Conversation, messages []store.Message) error {
	return markdownPDF(w, TranscriptMarkdown(conv, messages))
}

// ReportPDF renders a markdown research report as a PDF.
func ReportPDF(w io.Writer, markdown string) error {
	return markdownPDF(w, markdown)
}

// markdownPDF does a line-oriented markdown layout: headings get a larger
// bold font, links become clickable, everything else flows as body text.
// Full markdown layout is out of scope here.
func markdownPDF(w io.Writer, markdown string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(line, "#") {
			level := 0
			for level < len(line) && line[level] == '#' {
				level++
			}
			text := strings.TrimSpace(line[level:])
			if text == "" {
				continue
			}
			size := 14.0
			if level >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		writeLineWithLinks(pdf, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan markdown: %w", err)
	}
	return pdf.Output(w)
}

func writeLineWithLinks(pdf *gofpdf.Fpdf, line string) {
	matches := linkRe.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		pdf.MultiCell(0, 5, line, "", "L", false)
		return
	}
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			pdf.Write(5, line[pos:m[0]])
		}
		text := line[m[2]:m[3]]
		url := line[m[4]:m[5]]
		if strings.HasPrefix(url, "#") {
			pdf.Write(5, text)
		} else {
			pdf.WriteLinkString(5, text, url)
		}
		pos = m[1]
	}
	if pos < len(line) {
		pdf.Write(5, line[pos:])
	}
	pdf.Ln(6)
}
