// Package compose builds generation prompts from search evidence and
// conversation state. All builders are deterministic: the same inputs always
// produce the same prompt text.
package compose

import (
	"fmt"
	"strings"

	"github.com/harutofu/shiori/internal/search"
	"github.com/harutofu/shiori/internal/trust"
)

// Turn is one message in a generation request.
type Turn struct {
	Role    string
	Content string
}

// Roles accepted by generation backends.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// EvidenceBlock renders results as a numbered source list. User-provided
// sources come first, then the rest in their given order. Enriched page text
// is preferred over the snippet when present.
func EvidenceBlock(results []search.Result) string {
	if len(results) == 0 {
		return ""
	}
	ordered := make([]search.Result, 0, len(results))
	for _, r := range results {
		if r.Origin == search.OriginUser {
			ordered = append(ordered, r)
		}
	}
	for _, r := range results {
		if r.Origin != search.OriginUser {
			ordered = append(ordered, r)
		}
	}

	var b strings.Builder
	b.WriteString("参考情報:\n")
	for i, r := range ordered {
		body := r.Snippet
		if r.Enriched != "" {
			body = r.Enriched
		}
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\n", i+1, r.Title, r.URL)
		if r.ChapterHint != "" {
			fmt.Fprintf(&b, "章: %s\n", r.ChapterHint)
		}
		if body != "" {
			fmt.Fprintf(&b, "%s\n", body)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// CitationSummary asks for an answer grounded in the evidence with numbered
// citations. guard, when non-empty, is prepended as a hard instruction.
func CitationSummary(question, guard string, results []search.Result) string {
	var b strings.Builder
	if guard != "" {
		b.WriteString(guard)
		b.WriteString("\n\n")
	}
	b.WriteString(EvidenceBlock(results))
	b.WriteString("\n上記の参考情報に基づいて、次の質問に日本語で答えてください。")
	b.WriteString("参照した情報には [1] のような番号で出典を示してください。")
	b.WriteString("参考情報にない内容は推測であることを明示してください。\n\n質問: ")
	b.WriteString(question)
	return b.String()
}

// BookSummary builds the book summarization prompt. Trusted-domain evidence
// is listed first. When the user supplied a table of contents, the prompt
// instructs a chapter-by-chapter structure that follows it exactly.
func BookSummary(title, author, toc string, results []search.Result, trustedDomains []string) string {
	ranked := trust.Rank(results, trustedDomains)

	var b strings.Builder
	b.WriteString("あなたは書籍の内容を正確に要約するアシスタントです。\n\n")
	fmt.Fprintf(&b, "書籍: %s\n", title)
	if author != "" {
		fmt.Fprintf(&b, "著者: %s\n", author)
	}
	b.WriteString("\n")
	b.WriteString(EvidenceBlock(ranked))
	b.WriteString("\n上記の情報源に基づいてこの本の内容を要約してください。")
	b.WriteString("出典を [1] のような番号で示し、情報源にない内容は推測と明記してください。\n")
	if toc != "" {
		b.WriteString("\n以下は読者が提供した目次です。この章立ての順序と名称に正確に従い、章ごとに要約してください。目次にない章を作らないでください。\n\n")
		b.WriteString(toc)
		b.WriteString("\n")
	}
	return b.String()
}

// AnalysisPrompt asks for a running summary of a conversation transcript.
func AnalysisPrompt(turns []Turn) string {
	var b strings.Builder
	b.WriteString("以下の会話を読み、話題と結論を3文以内の日本語で要約してください。\n\n")
	for _, t := range turns {
		label := "ユーザー"
		if t.Role == RoleAssistant {
			label = "アシスタント"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, t.Content)
	}
	return b.String()
}

// TitlePrompt asks for a short conversation title derived from a summary.
func TitlePrompt(summary string) string {
	return "次の要約から、この会話の見出しを12〜18文字の日本語で1つだけ作ってください。" +
		"記号や引用符は使わず、見出しの文字列のみを返してください。\n\n要約: " + summary
}

// DecompositionPrompt asks for research sub-queries as a strict JSON array.
func DecompositionPrompt(topic string) string {
	return "次の調査トピックを、検索エンジンに投げる3〜5個の具体的な検索クエリに分解してください。" +
		"出力は JSON の文字列配列のみとし、説明文やコードブロックを付けないでください。\n\n" +
		`例: ["クエリ1", "クエリ2", "クエリ3"]` + "\n\nトピック: " + topic
}

// ReportPrompt asks for a structured markdown research report over the
// gathered evidence.
func ReportPrompt(topic string, results []search.Result) string {
	var b strings.Builder
	b.WriteString(EvidenceBlock(results))
	b.WriteString("\n上記の情報源に基づいて、次のトピックについて日本語の調査レポートを Markdown で作成してください。")
	b.WriteString("見出し、要点、出典番号 [1] を含め、最後に「出典」セクションを付けてください。\n\nトピック: ")
	b.WriteString(topic)
	return b.String()
}
