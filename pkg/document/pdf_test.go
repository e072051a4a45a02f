package document

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/resumeflow/pkg/document/pdftest"
)

func TestExtractTwoPages(t *testing.T) {
	data := pdftest.Build("Jane Doe\nSoftware Engineer", "Skills:\nGo, Rust")

	got, err := PDFExtractor{}.Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PageCount())
	assert.Equal(t, []string{"Jane Doe Software Engineer", "Skills: Go, Rust"}, got.Pages)
	assert.Equal(t, "Jane Doe Software Engineer\nSkills: Go, Rust\n", got.String())
}

func TestExtractCollapsesWhitespace(t *testing.T) {
	got, err := PDFExtractor{}.Extract(context.Background(), pdftest.Build("John   Doe \n  Engineer"))
	require.NoError(t, err)
	assert.Equal(t, "John Doe Engineer", got.Pages[0])
}

func TestExtractTJRuns(t *testing.T) {
	tests := []struct {
		name, content, want string
	}{
		{name: "word gap", content: "BT /F1 12 Tf 72 720 Td [(Jane) -300 (Doe)] TJ ET", want: "Jane Doe"},
		{name: "kerning", content: "BT /F1 12 Tf 72 720 Td [(Soft) 10 (ware) -40 (s)] TJ ET", want: "Softwares"},
		{name: "runs on separate lines", content: "BT /F1 12 Tf 72 720 Td [(Go)] TJ 0 -16 Td [(Rust)] TJ ET", want: "Go Rust"},
		{name: "quote operators", content: "BT /F1 12 Tf 14 TL 72 720 Td (Python) Tj (Kafka) ' 1 0 (Redis) \" ET", want: "Python Kafka Redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PDFExtractor{}.Extract(context.Background(), pdftest.BuildContent(tt.content))
			require.NoError(t, err)
			require.Equal(t, 1, got.PageCount())
			assert.Equal(t, tt.want, got.Pages[0])
		})
	}
}

func TestExtractUnmappedBytesStayValidUTF8(t *testing.T) {
	tests := []struct {
		name, encoding, content, want string
	}{
		{
			name:     "high bytes under an unmapped encoding",
			encoding: "MacExpertEncoding",
			content:  `BT /F1 12 Tf 72 720 Td (\267 Go \261 Rust) Tj ET`,
			want:     "\uFFFD Go \uFFFD Rust",
		},
		{
			name:     "two-byte codes with NUL high bytes",
			encoding: "MacExpertEncoding",
			content:  `BT /F1 12 Tf 72 720 Td (\000G\000o) Tj ET`,
			want:     "Go",
		},
		{
			name:    "font missing from resources",
			content: `BT /F9 12 Tf 72 720 Td (Rust \351) Tj ET`,
			want:    "Rust \uFFFD",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := pdftest.BuildPages(pdftest.Options{Encoding: tt.encoding}, pdftest.Page{Content: tt.content})
			got, err := PDFExtractor{}.Extract(context.Background(), data)
			require.NoError(t, err)
			require.Equal(t, 1, got.PageCount())
			assert.True(t, utf8.ValidString(got.Pages[0]), "%q", got.Pages[0])
			assert.NotContains(t, got.Pages[0], "\x00")
			assert.Equal(t, tt.want, got.Pages[0])
		})
	}
}

func TestExtractFormXObjects(t *testing.T) {
	tests := []struct {
		name string
		page pdftest.Page
		want string
	}{
		{
			name: "page body in a form",
			page: pdftest.Page{
				Content: "q /Body Do Q",
				Forms:   map[string]string{"Body": "BT /F1 12 Tf 72 720 Td (Jane Doe) Tj 0 -16 Td (Software Engineer) Tj ET"},
			},
			want: "Jane Doe Software Engineer",
		},
		{
			name: "form between page runs",
			page: pdftest.Page{
				Content: "BT /F1 12 Tf 72 720 Td (Skills:) Tj ET /Skills Do BT /F1 12 Tf 72 680 Td (Rust) Tj ET",
				Forms:   map[string]string{"Skills": "BT /F1 12 Tf 72 700 Td (Go,) Tj ET"},
			},
			want: "Skills: Go, Rust",
		},
		{
			name: "nested forms",
			page: pdftest.Page{
				Content: "/Outer Do",
				Forms: map[string]string{
					"Outer": "BT /F1 12 Tf 72 720 Td (Jane) Tj ET /Inner Do",
					"Inner": "BT /F1 12 Tf 72 700 Td (Doe) Tj ET",
				},
			},
			want: "Jane Doe",
		},
		{
			name: "self-referencing form stops at the depth bound",
			page: pdftest.Page{
				Content: "/Loop Do",
				Forms:   map[string]string{"Loop": "BT /F1 12 Tf 72 720 Td (Go) Tj ET /Loop Do"},
			},
			want: strings.TrimSpace(strings.Repeat("Go ", maxFormDepth)),
		},
		{
			name: "unknown name is ignored",
			page: pdftest.Page{Content: "BT /F1 12 Tf 72 720 Td (Jane) Tj ET /Missing Do"},
			want: "Jane",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PDFExtractor{}.Extract(context.Background(), pdftest.BuildPages(pdftest.Options{}, tt.page))
			require.NoError(t, err)
			require.Equal(t, 1, got.PageCount())
			assert.Equal(t, tt.want, got.Pages[0])
		})
	}
}

func TestExtractEmptyPageKeepsCount(t *testing.T) {
	got, err := PDFExtractor{}.Extract(context.Background(), pdftest.Build("", "hello"))
	require.NoError(t, err)
	assert.Equal(t, 2, got.PageCount())
	assert.Equal(t, "", got.Pages[0])
	assert.Equal(t, "hello", got.Pages[1])
}

func TestExtractNoText(t *testing.T) {
	got, err := PDFExtractor{}.Extract(context.Background(), pdftest.Build(""))
	require.NoError(t, err)
	assert.Equal(t, 1, got.PageCount())
	assert.Equal(t, "\n", got.String())
}

func TestExtractInfo(t *testing.T) {
	got, err := PDFExtractor{}.Extract(context.Background(), pdftest.BuildWithTitle("Jane CV", "x"))
	require.NoError(t, err)
	assert.Equal(t, "Jane CV", got.Info.Title)
	assert.Equal(t, "pdftest", got.Info.Producer)
}

func TestExtractCorrupt(t *testing.T) {
	tests := map[string][]byte{
		"empty":     {},
		"not a pdf": []byte("hello world"),
		"truncated": pdftest.Build("abc")[:40],
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := PDFExtractor{}.Extract(context.Background(), data)
			require.ErrorIs(t, err, ErrDocumentParse)
			assert.Zero(t, got.PageCount())
		})
	}
}
