// Package document turns uploaded document bytes into plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ErrDocumentParse is returned when the bytes cannot be read as a PDF.
var ErrDocumentParse = errors.New("document parse error")

// Info is the PDF document-information dictionary.
type Info struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Creator  string `json:"creator"`
	Producer string `json:"producer"`
}

// Text is the extracted text of a document, one entry per page in page order.
type Text struct {
	Pages []string
	Info  Info
}

func (t Text) PageCount() int { return len(t.Pages) }

// String concatenates the pages, each followed by a newline.
func (t Text) String() string {
	var b strings.Builder
	for _, p := range t.Pages {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// PDFExtractor extracts page text with ledongthuc/pdf.
type PDFExtractor struct{}

// Extract reads every page 1..N. Each text-showing operator (Tj, TJ, ', ") is one
// run; runs on a page, including those drawn by form XObjects, are joined with single
// spaces so words never fuse across lines.
// Extraction is all-or-nothing: any failure yields ErrDocumentParse and no text.
func (PDFExtractor) Extract(ctx context.Context, data []byte) (out Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Text{}
			err = fmt.Errorf("%w: %v", ErrDocumentParse, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Text{}, fmt.Errorf("%w: %w", ErrDocumentParse, err)
	}
	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}
		page := r.Page(i)
		if page.V.IsNull() || page.V.Key("Contents").IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText(page))
	}
	return Text{Pages: pages, Info: readInfo(r)}, nil
}

// tjWordGap is the TJ displacement (thousandths of a text unit) treated as a space.
// Smaller adjustments are kerning inside a word.
const tjWordGap = -250

// maxFormDepth bounds nested form XObjects; it also stops self-referencing forms.
const maxFormDepth = 8

func pageText(p pdf.Page) string {
	var w textWalker
	w.walk(p.Resources(), p.V.Key("Contents"), nil, 0)
	s := strings.Join(w.runs, " ")
	// Unmapped encodings pass raw bytes through, and Postgres TEXT takes neither NUL nor invalid UTF-8.
	s = strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
	return strings.Join(strings.Fields(s), " ")
}

type textWalker struct {
	runs []string
}

// walk interprets one content stream with the fonts and XObjects of res.
// enc is the font selected when a form is drawn; the form may select its own.
func (w *textWalker) walk(res, contents pdf.Value, enc pdf.TextEncoding, depth int) {
	fonts := make(map[string]pdf.TextEncoding)
	fontDict := res.Key("Font")
	for _, name := range fontDict.Keys() {
		fonts[name] = pdf.Font{V: fontDict.Key(name)}.Encoder()
	}
	decode := func(raw string) string {
		if enc == nil {
			return raw
		}
		return enc.Decode(raw)
	}

	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		switch op {
		case "Tf":
			if len(args) == 2 {
				enc = fonts[args[0].Name()]
			}
		case "Tj", "'":
			if len(args) == 1 {
				w.runs = append(w.runs, decode(args[0].RawString()))
			}
		case "\"":
			if len(args) == 3 {
				w.runs = append(w.runs, decode(args[2].RawString()))
			}
		case "TJ":
			if len(args) != 1 {
				return
			}
			var b strings.Builder
			arr := args[0]
			for i := 0; i < arr.Len(); i++ {
				v := arr.Index(i)
				if v.Kind() == pdf.String {
					b.WriteString(decode(v.RawString()))
				} else if v.Float64() < tjWordGap {
					b.WriteByte(' ')
				}
			}
			w.runs = append(w.runs, b.String())
		case "Do":
			if len(args) != 1 || depth >= maxFormDepth {
				return
			}
			form := res.Key("XObject").Key(args[0].Name())
			if form.Kind() != pdf.Stream || form.Key("Subtype").Name() != "Form" {
				return
			}
			formRes := form.Key("Resources")
			if formRes.IsNull() {
				formRes = res
			}
			w.walk(formRes, form, enc, depth+1)
		}
	})
}

func readInfo(r *pdf.Reader) Info {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return Info{}
	}
	return Info{
		Title:    strings.TrimSpace(info.Key("Title").Text()),
		Author:   strings.TrimSpace(info.Key("Author").Text()),
		Creator:  strings.TrimSpace(info.Key("Creator").Text()),
		Producer: strings.TrimSpace(info.Key("Producer").Text()),
	}
}
