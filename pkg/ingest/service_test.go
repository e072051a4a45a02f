package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/resumeflow/pkg/auth"
	"github.com/artem13815/resumeflow/pkg/document"
	"github.com/artem13815/resumeflow/pkg/document/pdftest"
	"github.com/artem13815/resumeflow/pkg/llm"
	"github.com/artem13815/resumeflow/pkg/resume"
)

type spyText struct {
	calls int
	inner TextExtractor
}

func (s *spyText) Extract(ctx context.Context, data []byte) (document.Text, error) {
	s.calls++
	return s.inner.Extract(ctx, data)
}

type stubStructurer struct {
	calls int
	out   resume.StructuredResume
	err   error
}

func (s *stubStructurer) Extract(context.Context, string) (resume.StructuredResume, error) {
	s.calls++
	return s.out, s.err
}

type fakeGateway struct {
	storeErr   error
	recordErr  error
	discardErr error

	stored    []resume.StoredFile
	records   []uuid.UUID
	rawTexts  []string
	discarded []string
}

func (g *fakeGateway) StoreFile(_ context.Context, owner uuid.UUID, name string, data []byte, mime string) (resume.StoredFile, error) {
	if g.storeErr != nil {
		return resume.StoredFile{}, g.storeErr
	}
	f := resume.StoredFile{Key: owner.String() + "-" + name, URL: "https://files/" + name, Type: mime, Size: int64(len(data))}
	g.stored = append(g.stored, f)
	return f, nil
}

func (g *fakeGateway) RecordResume(_ context.Context, _ uuid.UUID, _ string, _ resume.StoredFile, _ resume.StructuredResume, rawText string, _ resume.Status) (uuid.UUID, error) {
	if g.recordErr != nil {
		return uuid.Nil, g.recordErr
	}
	id := uuid.New()
	g.records = append(g.records, id)
	g.rawTexts = append(g.rawTexts, rawText)
	return id, nil
}

func (g *fakeGateway) DiscardFile(_ context.Context, f resume.StoredFile) error {
	g.discarded = append(g.discarded, f.Key)
	return g.discardErr
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) ResumeCompleted(_ context.Context, ev Event) error {
	n.events = append(n.events, ev)
	return n.err
}

type model struct {
	out string
	err error
}

func (m model) Ask(context.Context, string, string, ...llm.Option) (string, error) { return m.out, m.err }

type harness struct {
	svc      *Service
	text     *spyText
	gw       *fakeGateway
	notifier *recordingNotifier
}

func newHarness(structurer Structurer) *harness {
	h := &harness{
		text:     &spyText{inner: document.PDFExtractor{}},
		gw:       &fakeGateway{},
		notifier: &recordingNotifier{},
	}
	h.svc = NewService(Deps{
		Text:       h.text,
		Structurer: structurer,
		Store:      h.gw,
		Notifier:   h.notifier,
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
	}, Options{MaxBytes: 10 << 20})
	return h
}

func pdfUpload(data []byte) (*Upload, *int) {
	opened := new(int)
	return &Upload{
		Filename:    "cv.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			*opened++
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, opened
}

func principal() *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), Email: "jane@example.com"}
}

func TestIngestTwoPagePDF(t *testing.T) {
	st := &stubStructurer{out: resume.StructuredResume{
		PersonalInfo: resume.PersonalInfo{Name: "Jane Doe"},
		Experience:   []resume.Experience{},
		Education:    []resume.Education{},
		Skills:       []string{"Go", "Rust"},
	}}
	h := newHarness(st)
	up, _ := pdfUpload(pdftest.BuildWithTitle("CV", "Jane Doe\nSoftware Engineer", "Skills:\nGo, Rust"))

	res, err := h.svc.Ingest(context.Background(), principal(), up)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Preview.PageCount)
	assert.Equal(t, "Jane Doe Software Engineer\nSkills: Go, Rust", res.Preview.Text)
	assert.Equal(t, "CV", res.Preview.Info.Title)
	assert.Equal(t, "cv.pdf", res.Preview.Info.FileName)
	assert.Equal(t, "Jane Doe", res.ParsedData.PersonalInfo.Name)
	assert.Equal(t, "https://files/cv.pdf", res.File.URL)
	assert.Equal(t, int64(1700000000000), res.File.LastModified)
	require.Len(t, h.gw.records, 1)
	assert.Equal(t, h.gw.records[0], res.ResumeID)
	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, res.ResumeID, h.notifier.events[0].ResumeID)
	assert.Equal(t, resume.StatusCompleted, h.notifier.events[0].Status)
}

func TestIngestStoresValidUTF8RawText(t *testing.T) {
	h := newHarness(&stubStructurer{out: resume.StructuredResume{Experience: []resume.Experience{}, Education: []resume.Education{}, Skills: []string{}}})
	data := pdftest.BuildPages(pdftest.Options{Encoding: "MacExpertEncoding"},
		pdftest.Page{Content: `BT /F1 12 Tf 72 720 Td (Jane\000 Doe \267 Go \261 Rust) Tj ET`})
	up, _ := pdfUpload(data)

	res, err := h.svc.Ingest(context.Background(), principal(), up)
	require.NoError(t, err)
	require.Len(t, h.gw.rawTexts, 1)
	assert.True(t, utf8.ValidString(h.gw.rawTexts[0]), "%q", h.gw.rawTexts[0])
	assert.NotContains(t, h.gw.rawTexts[0], "\x00")
	assert.Equal(t, "Jane Doe \uFFFD Go \uFFFD Rust", h.gw.rawTexts[0])
	assert.Equal(t, h.gw.rawTexts[0], res.Preview.Text)
}

func TestIngestGatesInOrder(t *testing.T) {
	small := pdftest.Build("hello")
	tests := []struct {
		name    string
		up      func() *Upload
		p       *auth.Principal
		want    error
		message string
	}{
		{
			name:    "missing file beats everything",
			up:      func() *Upload { return nil },
			p:       nil,
			want:    ErrMissingFile,
			message: "No valid file provided",
		},
		{
			name: "type before size and auth",
			up: func() *Upload {
				u, _ := pdfUpload(small)
				u.ContentType = "image/png"
				u.Size = 50 << 20
				return u
			},
			p:       nil,
			want:    ErrUnsupportedFileType,
			message: "Only PDF files are supported",
		},
		{
			name: "size before auth",
			up: func() *Upload {
				u, _ := pdfUpload(small)
				u.Size = 50 << 20
				return u
			},
			p:       nil,
			want:    ErrFileTooLarge,
			message: "File size must be less than 10MB",
		},
		{
			name: "auth last",
			up: func() *Upload {
				u, _ := pdfUpload(small)
				return u
			},
			p:    nil,
			want: ErrUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &stubStructurer{}
			h := newHarness(st)
			up := tt.up()
			opened := 0
			if up != nil {
				open := up.Open
				up.Open = func() (io.ReadCloser, error) { opened++; return open() }
			}

			_, err := h.svc.Ingest(context.Background(), tt.p, up)
			require.ErrorIs(t, err, tt.want)
			if tt.message != "" {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tt.message, ve.Message)
			}
			assert.Zero(t, opened)
			assert.Zero(t, h.text.calls)
			assert.Zero(t, st.calls)
			assert.Empty(t, h.gw.stored)
			assert.Empty(t, h.gw.records)
		})
	}
}

func TestIngestMimeContainsPDF(t *testing.T) {
	h := newHarness(&stubStructurer{})
	up, _ := pdfUpload(pdftest.Build("hello"))
	up.ContentType = "Application/X-PDF"
	_, err := h.svc.Ingest(context.Background(), principal(), up)
	require.NoError(t, err)
}

func TestIngestDeclaredSizeLies(t *testing.T) {
	h := newHarness(&stubStructurer{})
	h.svc.maxBytes = 64
	up, _ := pdfUpload(pdftest.Build("hello"))
	up.Size = 10
	_, err := h.svc.Ingest(context.Background(), principal(), up)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Zero(t, h.text.calls)
}

func TestIngestNoExtractableText(t *testing.T) {
	st := &stubStructurer{}
	h := newHarness(st)
	up, _ := pdfUpload(pdftest.Build("", ""))

	_, err := h.svc.Ingest(context.Background(), principal(), up)
	require.ErrorIs(t, err, ErrNoExtractableText)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "No extractable text found in PDF", ve.Message)
	assert.Equal(t, 1, h.text.calls)
	assert.Zero(t, st.calls)
	assert.Empty(t, h.gw.records)
	assert.Empty(t, h.gw.stored)
}

func TestIngestCorruptPDF(t *testing.T) {
	st := &stubStructurer{}
	h := newHarness(st)
	up, _ := pdfUpload([]byte("%PDF-1.4 garbage"))
	_, err := h.svc.Ingest(context.Background(), principal(), up)
	require.ErrorIs(t, err, document.ErrDocumentParse)
	assert.Zero(t, st.calls)
	assert.Empty(t, h.gw.records)
}

func TestIngestCompletionServiceFails(t *testing.T) {
	ex := resume.NewExtractor(model{err: &llm.StatusError{Provider: "stub", StatusCode: 500, Body: "boom"}}, time.Second, 0)
	h := newHarness(ex)
	up, _ := pdfUpload(pdftest.Build("Jane Doe"))

	_, err := h.svc.Ingest(context.Background(), principal(), up)
	require.ErrorIs(t, err, resume.ErrExtractionService)
	assert.Empty(t, h.gw.stored)
	assert.Empty(t, h.gw.records)
	assert.Empty(t, h.notifier.events)
}

func TestIngestPartialCompletionMaterializesEmpty(t *testing.T) {
	ex := resume.NewExtractor(model{out: `{"personalInfo":{"name":"Jane"}}`}, time.Second, 0)
	h := newHarness(ex)
	up, _ := pdfUpload(pdftest.Build("Jane"))

	res, err := h.svc.Ingest(context.Background(), principal(), up)
	require.NoError(t, err)
	assert.NotNil(t, res.ParsedData.Experience)
	assert.NotNil(t, res.ParsedData.Education)
	assert.NotNil(t, res.ParsedData.Skills)
}

func TestIngestTwiceCreatesTwoRecords(t *testing.T) {
	h := newHarness(&stubStructurer{})
	p := principal()
	data := pdftest.Build("Jane")

	up1, _ := pdfUpload(data)
	r1, err := h.svc.Ingest(context.Background(), p, up1)
	require.NoError(t, err)
	up2, _ := pdfUpload(data)
	r2, err := h.svc.Ingest(context.Background(), p, up2)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ResumeID, r2.ResumeID)
	assert.Len(t, h.gw.records, 2)
}

func TestIngestPersistenceFailures(t *testing.T) {
	t.Run("store fails", func(t *testing.T) {
		h := newHarness(&stubStructurer{})
		h.gw.storeErr = errors.New("bucket down")
		up, _ := pdfUpload(pdftest.Build("Jane"))
		_, err := h.svc.Ingest(context.Background(), principal(), up)
		require.ErrorIs(t, err, ErrPersistence)
		assert.Empty(t, h.gw.records)
		assert.Empty(t, h.gw.discarded)
	})
	t.Run("record fails, file discarded", func(t *testing.T) {
		h := newHarness(&stubStructurer{})
		h.gw.recordErr = errors.New("db down")
		h.gw.discardErr = errors.New("still down")
		up, _ := pdfUpload(pdftest.Build("Jane"))
		_, err := h.svc.Ingest(context.Background(), principal(), up)
		require.ErrorIs(t, err, ErrPersistence)
		require.Len(t, h.gw.stored, 1)
		assert.Equal(t, []string{h.gw.stored[0].Key}, h.gw.discarded)
		assert.Empty(t, h.notifier.events)
	})
}

func TestIngestNotifierFailureIgnored(t *testing.T) {
	h := newHarness(&stubStructurer{})
	h.notifier.err = errors.New("broker down")
	up, _ := pdfUpload(pdftest.Build("Jane"))
	_, err := h.svc.Ingest(context.Background(), principal(), up)
	require.NoError(t, err)
	assert.Len(t, h.gw.records, 1)
}

// stalledNotifier blocks like a broker under flow control until ctx ends.
type stalledNotifier struct {
	deadline bool
}

func (n *stalledNotifier) ResumeCompleted(ctx context.Context, _ Event) error {
	_, n.deadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestIngestNotifyIsBounded(t *testing.T) {
	n := &stalledNotifier{}
	gw := &fakeGateway{}
	svc := NewService(Deps{
		Text:       document.PDFExtractor{},
		Structurer: &stubStructurer{},
		Store:      gw,
		Notifier:   n,
	}, Options{NotifyTimeout: 20 * time.Millisecond})

	up, _ := pdfUpload(pdftest.Build("Jane"))
	start := time.Now()
	res, err := svc.Ingest(context.Background(), principal(), up)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, n.deadline)
	assert.NotEqual(t, uuid.Nil, res.ResumeID)
	assert.Len(t, gw.records, 1)
}

func TestNewServiceDefaultsNotifyTimeout(t *testing.T) {
	svc := NewService(Deps{}, Options{})
	assert.Equal(t, DefaultNotifyTimeout, svc.notifyTimeout)
}
