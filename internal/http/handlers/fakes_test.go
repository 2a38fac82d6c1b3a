package handlers

import (
	"bytes"
	"context"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/http/middleware"
	"github.com/tbourn/rag-chat-backend/internal/services"
)

// ---------- service fakes ----------

type fakeDocs struct {
	uploads   []services.Upload
	bodies    []string
	uploadRes *services.UploadResult
	uploadErr error

	docs      []domain.Document
	total     int64
	listErr   error
	lastPage  int
	lastSize  int
	system    []domain.Document
	listCalls int

	count    int64
	newest   *time.Time
	statsErr error

	deleted       []string
	systemDeleted []string
	deleteErr     error
}

func (f *fakeDocs) Upload(_ context.Context, in services.Upload) (*services.UploadResult, error) {
	b, _ := io.ReadAll(in.File)
	in.File = nil
	f.uploads = append(f.uploads, in)
	f.bodies = append(f.bodies, string(b))
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadRes != nil {
		return f.uploadRes, nil
	}
	return &services.UploadResult{ID: "doc-1", Filename: "1-" + in.OriginalName + ".txt"}, nil
}

func (f *fakeDocs) List(_ context.Context, page, pageSize int) ([]domain.Document, int64, error) {
	f.listCalls++
	f.lastPage, f.lastSize = page, pageSize
	return f.docs, f.total, f.listErr
}

func (f *fakeDocs) ListSystem(context.Context) ([]domain.Document, error) {
	f.listCalls++
	return f.system, f.listErr
}

func (f *fakeDocs) Stats(context.Context, bool) (int64, *time.Time, error) {
	return f.count, f.newest, f.statsErr
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeDocs) DeleteSystem(_ context.Context, id string) error {
	f.systemDeleted = append(f.systemDeleted, id)
	return f.deleteErr
}

type fakeChat struct {
	answer    string
	answerErr error

	prepErr error
	frags   []string
	midErr  error

	messages []string
}

func (f *fakeChat) Answer(_ context.Context, msg string) (string, error) {
	f.messages = append(f.messages, msg)
	return f.answer, f.answerErr
}

func (f *fakeChat) Stream(_ context.Context, msg string) (iter.Seq2[string, error], error) {
	f.messages = append(f.messages, msg)
	if f.prepErr != nil {
		return nil, f.prepErr
	}
	return func(yield func(string, error) bool) {
		for _, fr := range f.frags {
			if !yield(fr, nil) {
				return
			}
		}
		if f.midErr != nil {
			yield("", f.midErr)
		}
	}, nil
}

type fakePrompts struct {
	text    string
	getErr  error
	saveErr error
	saved   []string
}

func (f *fakePrompts) Get(context.Context) (string, error) { return f.text, f.getErr }

func (f *fakePrompts) Save(_ context.Context, p string) error {
	f.saved = append(f.saved, p)
	return f.saveErr
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

// ---------- router + request helpers ----------

type deps struct {
	docs    *fakeDocs
	chat    *fakeChat
	prompts *fakePrompts
	store   fakePinger
	opts    Options
}

func newDeps() *deps {
	return &deps{docs: &fakeDocs{}, chat: &fakeChat{}, prompts: &fakePrompts{}}
}

func (d *deps) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(d.docs, d.chat, d.prompts, d.store, d.opts)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/health", h.Health)
	api := r.Group("/api")
	api.GET("/system-prompt", h.GetSystemPrompt)
	api.POST("/system-prompt", h.SaveSystemPrompt)
	api.GET("/documents", h.ListDocuments)
	api.POST("/upload", middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: services.ScopeUpload}, nil), h.UploadDocument)
	api.DELETE("/documents/:id", h.DeleteDocument)
	api.POST("/chat", h.Chat)
	api.GET("/admin/documents", h.ListSystemDocuments)
	api.POST("/admin/upload", h.UploadSystemDocument)
	api.DELETE("/admin/documents/:id", h.DeleteSystemDocument)
	return r
}

func do(r http.Handler, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return do(r, method, path, bytes.NewBufferString(body), map[string]string{"Content-Type": "application/json"})
}

// multipartBody builds a form with one file part. An empty partType omits
// the part's Content-Type header.
func multipartBody(field, filename, partType, content string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if partType != "" {
		h.Set("Content-Type", partType)
	}
	pw, _ := mw.CreatePart(h)
	_, _ = pw.Write([]byte(content))
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}
