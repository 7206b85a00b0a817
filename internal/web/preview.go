package web

import (
	"net/http"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
)

var mdRenderer = goldmark.New()

type previewResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	UsageHTML string `json:"usage_html"`
	CodeHTML  string `json:"code_html"`
}

// handlePreview renders a node for display: usage as markdown, the code
// snippet syntax-highlighted with CSS classes so styling stays client-side.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	src, err := s.svc.Preview(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	usageHTML, err := renderMarkdown(src.Usage)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	codeHTML, err := highlightCode(src.CodeSnippet)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, previewResponse{ID: src.ID, Title: src.Title, UsageHTML: usageHTML, CodeHTML: codeHTML})
}

func renderMarkdown(body string) (string, error) {
	if body == "" {
		return "", nil
	}
	var b strings.Builder
	if err := mdRenderer.Convert([]byte(body), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func highlightCode(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	lexer := lexers.Analyse(src)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(true)).Format(&b, style, it); err != nil {
		return "", err
	}
	return b.String(), nil
}
