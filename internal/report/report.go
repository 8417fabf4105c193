// Package report renders pack info, search results and verification reports as
// plain text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dshills/packcheck/internal/searcher"
	"github.com/dshills/packcheck/internal/storage"
)

const (
	// DefaultSnippetLength is the number of runes shown per result.
	DefaultSnippetLength = 200

	separator       = "----------------------------------------"
	ellipsis        = "…"
	placeholderNote = "Note: all cosine similarities are near zero. Replace the placeholder embeddings in the pack to unlock semantic ranking."
)

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Snippet flattens line breaks to spaces and keeps the first n runes, appending an
// ellipsis when text was cut.
func Snippet(text string, n int) string {
	if n <= 0 {
		n = DefaultSnippetLength
	}
	cleaned := lineBreaks.Replace(text)
	if utf8.RuneCountInString(cleaned) <= n {
		return cleaned
	}
	runes := []rune(cleaned)
	return string(runes[:n]) + ellipsis
}

// printer accumulates the first write error so callers can format freely.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	p.printf("%s\n", s)
}

// WriteInfo renders pack statistics.
func WriteInfo(w io.Writer, stats *storage.PackStats) error {
	p := &printer{w: w}
	p.printf("Pack: %s\n", stats.Path)
	p.printf("Size: %d bytes (%.2f MiB)\n", stats.SizeBytes, stats.SizeMiB())
	p.printf("Docs:            %d\n", stats.Docs)
	p.printf("Chunks:          %d\n", stats.Chunks)
	p.printf("FTS rows:        %d\n", stats.FTSRows)
	p.printf("Embedding rows:  %d\n", stats.Embeddings)
	if stats.EmbeddingDim != nil {
		dim := *stats.EmbeddingDim
		p.printf("Embedding dim:   %d (%d bytes)\n", dim, dim*4)
	} else {
		p.println("Embedding dim:   n/a (no embeddings stored)")
	}
	if stats.Sample != nil {
		p.printf("Sample doc:      #%d %s\n", stats.Sample.DocID, stats.Sample.DocTitle)
		p.printf("Sample chunk id: #%d\n", stats.Sample.ChunkID)
	}
	return p.err
}

// WriteSearch renders a search response for the pack at path.
func WriteSearch(w io.Writer, path string, resp *searcher.SearchResponse, snippetLength int) error {
	p := &printer{w: w}
	if len(resp.Results) == 0 {
		p.printf("No matches for %q\n", resp.Query)
		return p.err
	}

	p.printf("Pack: %s\n", path)
	p.printf("Query: %s\n", resp.Query)
	if resp.Notice != "" {
		p.printf("Notice: %s\n", resp.Notice)
	}
	p.printf("Results (top %d):\n", resp.Top)

	for _, r := range resp.Results {
		p.println(separator)
		p.printf("#%d doc=%d chunk=%d ord=%d\n", r.Rank, r.DocID, r.ChunkID, r.Ord)
		p.printf("Title: %s\n", r.Title)
		p.printf("BM25: %.4f\n", r.BM25)
		switch {
		case r.Cosine != nil:
			p.printf("Cosine: %.4f\n", *r.Cosine)
		case resp.VectorRan:
			p.println("Cosine: n/a")
		}
		p.printf("RRF: %.4f\n", r.RRF)
		p.printf("Snippet: %s\n", Snippet(r.Text, snippetLength))
	}

	if resp.PlaceholderEmbeddings {
		p.println("")
		p.println(placeholderNote)
	}
	return p.err
}

// WriteVerify renders one line per check and a summary.
func WriteVerify(w io.Writer, rep *storage.VerifyReport) error {
	p := &printer{w: w}
	p.printf("Pack: %s\n", rep.Path)
	for _, c := range rep.Checks {
		status := "ok"
		if !c.OK {
			status = "FAIL"
			if c.Severity == storage.SeverityWarning {
				status = "WARN"
			}
		}
		p.printf("[%-4s] %-20s %s\n", status, c.Name, c.Detail)
	}

	failed := rep.Failed()
	switch {
	case len(failed) == 0:
		p.printf("All %d checks passed\n", len(rep.Checks))
	case rep.OK():
		p.printf("Passed with %d warning(s)\n", len(failed))
	default:
		p.printf("%d of %d checks failed\n", len(failed), len(rep.Checks))
	}
	return p.err
}
