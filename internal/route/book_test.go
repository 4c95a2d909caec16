package route

import "testing"

func TestParseBookRequest(t *testing.T) {
	cases := []struct {
		name       string
		message    string
		wantOK     bool
		wantTitle  string
		wantAuthor string
	}{
		{
			name:      "corner brackets",
			message:   "「坊っちゃん」を要約して",
			wantOK:    true,
			wantTitle: "坊っちゃん",
		},
		{
			name:       "author before double brackets",
			message:    "夏目漱石の『こころ』のあらすじを教えて",
			wantOK:     true,
			wantTitle:  "こころ",
			wantAuthor: "夏目漱石",
		},
		{
			name:       "author marker",
			message:    "『深い河』の内容をまとめて。著者: 遠藤周作",
			wantOK:     true,
			wantTitle:  "深い河",
			wantAuthor: "遠藤周作",
		},
		{
			name:      "ascii quotes",
			message:   `Summarize the book "Snow Country" please`,
			wantOK:    true,
			wantTitle: "Snow Country",
		},
		{
			name:    "unquoted with book word",
			message: "この小説の内容を要約してほしい",
			wantOK:  true,
		},
		{
			name:      "quoted title about-phrasing",
			message:   "『ノルウェイの森』について教えて",
			wantOK:    true,
			wantTitle: "ノルウェイの森",
		},
		{
			name:      "quoted title alone",
			message:   "「坊っちゃん」って知ってる？",
			wantOK:    true,
			wantTitle: "坊っちゃん",
		},
		{
			name:    "summarize without book context",
			message: "この会議の内容をまとめて",
			wantOK:  false,
		},
		{
			name:    "plain chat",
			message: "こんにちは",
			wantOK:  false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseBookRequest(tc.message)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if got.Title != tc.wantTitle {
				t.Fatalf("title = %q, want %q", got.Title, tc.wantTitle)
			}
			if got.Author != tc.wantAuthor {
				t.Fatalf("author = %q, want %q", got.Author, tc.wantAuthor)
			}
		})
	}
}

func TestParseBookRequest_ExtractsTOC(t *testing.T) {
	message := "夏目漱石の『こころ』を以下の目次に沿って要約して\n序章 先生との出会い\n第1章 先生と私\n第2章 両親と私\nよろしく"
	got, ok := ParseBookRequest(message)
	if !ok {
		t.Fatal("expected book request")
	}
	want := "序章 先生との出会い\n第1章 先生と私\n第2章 両親と私"
	if got.TOC != want {
		t.Fatalf("toc = %q, want %q", got.TOC, want)
	}
}

func TestParseBookRequest_SingleChapterLineIsNotTOC(t *testing.T) {
	got, ok := ParseBookRequest("『こころ』の第1章 だけを要約して")
	if !ok {
		t.Fatal("expected book request")
	}
	if got.TOC != "" {
		t.Fatalf("one chapter mention is not a table of contents: %q", got.TOC)
	}
}
