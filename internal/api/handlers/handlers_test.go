package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"

	"pdfquiz/internal/apperr"
	"pdfquiz/internal/models"
	"pdfquiz/internal/prompt"
	"pdfquiz/internal/usage"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	return f.text, f.err
}

type fakeGenerator struct {
	quiz    *models.Quiz
	err     error
	calls   int
	lastKey string
}

func (f *fakeGenerator) Generate(ctx context.Context, p, apiKey string) (*models.Quiz, error) {
	f.calls++
	f.lastKey = apiKey
	if f.err != nil {
		return nil, f.err
	}
	return f.quiz, nil
}

func parisQuiz() *models.Quiz {
	return &models.Quiz{Questions: []models.Question{{
		ID:            1,
		Question:      "What is the capital of France?",
		CorrectAnswer: "Paris",
		Choices:       []string{"Paris", "London", "Berlin", "Madrid"},
		Explanation:   "Paris is the capital.",
	}}}
}

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

type testServer struct {
	router  *gin.Engine
	handler *Handler
	ext     *fakeExtractor
	gen     *fakeGenerator
	cookies []*http.Cookie
}

func newTestServer(t *testing.T, serverKey string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterSessionTypes()

	ext := &fakeExtractor{text: "Paris is the capital of France."}
	gen := &fakeGenerator{quiz: parisQuiz()}
	h := NewHandler(ext, gen, nil, Options{
		Prompts:      prompt.Builder{Language: prompt.DefaultLanguage},
		Credit:       usage.DefaultPolicy(),
		ServerAPIKey: serverKey,
	})
	h.Now = func() time.Time { return fixedNow }

	r := gin.New()
	r.Use(sessions.Sessions("test_session", memstore.NewStore([]byte("test-secret"))))
	r.GET("/status", h.HandleStatus)
	r.POST("/extract", h.HandleExtract)
	r.POST("/generate", h.HandleGenerateQuiz)
	r.GET("/current", h.HandleGetCurrentQuiz)
	r.GET("/download/:format", h.HandleDownload)

	return &testServer{router: r, handler: h, ext: ext, gen: gen}
}

// do sends the request with the session cookie from earlier responses.
func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		s.cookies = cookies
	}
	return rec
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) post(t *testing.T, path string, fields map[string]string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "lecture.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(file)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req)
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func statusUsage(t *testing.T, s *testServer) usage.Snapshot {
	t.Helper()
	rec := s.get("/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	var resp struct {
		Usage   usage.Snapshot `json:"usage"`
		HasQuiz bool           `json:"has_quiz"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return resp.Usage
}

var pdfBytes = []byte("%PDF-1.4 fake")

func TestGenerateThenDownloadEveryFormat(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.post(t, "/generate", map[string]string{"api_key": "user-key", "question_count": "3", "difficulty": "easy"}, pdfBytes)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode generate: %v", err)
	}
	if resp.QuestionCount != 1 || resp.Quiz.Questions[0].CorrectAnswer != "Paris" {
		t.Fatalf("unexpected quiz: %+v", resp.Quiz)
	}
	if resp.Difficulty != prompt.Easy {
		t.Fatalf("difficulty: got=%q", resp.Difficulty)
	}
	if resp.Usage.Generations != 1 || resp.Usage.RemainingCredit != 4.99 {
		t.Fatalf("usage: %+v", resp.Usage)
	}
	if s.gen.lastKey != "user-key" {
		t.Fatalf("generator key: got=%q", s.gen.lastKey)
	}

	cases := []struct {
		format      string
		contentType string
		filename    string
		check       func(body string) bool
	}{
		{"html", "text/html", "quiz_20240305_140709.html", func(b string) bool { return strings.Contains(b, "What is the capital of France?") }},
		{"csv", "text/csv", "quiz_20240305_140709.csv", func(b string) bool { return strings.HasPrefix(b, "\ufeff") && strings.Contains(b, "Paris") }},
		{"json", "application/json", "quiz_20240305_140709.json", func(b string) bool { return strings.Contains(b, `"correct_answer": "Paris"`) }},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			rec := s.get("/download/" + tc.format)
			if rec.Code != http.StatusOK {
				t.Fatalf("download: got=%d body=%s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tc.contentType) {
				t.Fatalf("content type: got=%q want prefix %q", ct, tc.contentType)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, tc.filename) {
				t.Fatalf("content disposition: got=%q want %q", cd, tc.filename)
			}
			if !tc.check(rec.Body.String()) {
				t.Fatalf("unexpected body: %q", rec.Body.String())
			}
		})
	}
}

func TestGenerateWithoutKeyDoesNotCallModel(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.post(t, "/generate", nil, pdfBytes)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeError(t, rec).Code; code != string(apperr.KindAuth) {
		t.Fatalf("code: got=%q", code)
	}
	if s.gen.calls != 0 {
		t.Fatalf("generator called %d times", s.gen.calls)
	}
	if u := statusUsage(t, s); u.Generations != 0 {
		t.Fatalf("failed attempt counted: %+v", u)
	}
}

func TestServerKeyTakesPrecedence(t *testing.T) {
	s := newTestServer(t, "server-key")

	rec := s.post(t, "/generate", map[string]string{"api_key": "user-key"}, pdfBytes)
	if rec.Code != http.StatusOK {
		t.Fatalf("got=%d body=%s", rec.Code, rec.Body.String())
	}
	if s.gen.lastKey != "server-key" {
		t.Fatalf("generator key: got=%q", s.gen.lastKey)
	}
}

func TestParseFailureKeepsPreviousQuiz(t *testing.T) {
	s := newTestServer(t, "key")

	if rec := s.post(t, "/generate", nil, pdfBytes); rec.Code != http.StatusOK {
		t.Fatalf("first generate: got=%d", rec.Code)
	}

	s.gen.err = apperr.Parse(errors.New("invalid character 'S'"), "Sorry, I cannot help")
	rec := s.post(t, "/generate", nil, pdfBytes)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got=%d want=%d", rec.Code, http.StatusBadGateway)
	}
	body := decodeError(t, rec)
	if body.Code != string(apperr.KindParse) || body.RawResponse != "Sorry, I cannot help" {
		t.Fatalf("unexpected error body: %+v", body)
	}

	rec = s.get("/current")
	if rec.Code != http.StatusOK {
		t.Fatalf("current: got=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "What is the capital of France?") {
		t.Fatalf("previous quiz lost: %s", rec.Body.String())
	}
	if u := statusUsage(t, s); u.Generations != 1 {
		t.Fatalf("generations: got=%d want=1", u.Generations)
	}
}

func TestAPIFailureMapsToBadGateway(t *testing.T) {
	s := newTestServer(t, "key")
	s.gen.err = apperr.API(errors.New("quota exceeded"))

	rec := s.post(t, "/generate", nil, pdfBytes)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got=%d want=%d", rec.Code, http.StatusBadGateway)
	}
	body := decodeError(t, rec)
	if body.Code != string(apperr.KindAPI) || body.RawResponse != "" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestGenerateRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		file   []byte
	}{
		{"count below range", map[string]string{"question_count": "2"}, pdfBytes},
		{"count above range", map[string]string{"question_count": "21"}, pdfBytes},
		{"count not a number", map[string]string{"question_count": "five"}, pdfBytes},
		{"unknown difficulty", map[string]string{"difficulty": "extreme"}, pdfBytes},
		{"missing file", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, "key")
			rec := s.post(t, "/generate", tc.fields, tc.file)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("got=%d want=%d body=%s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
			if s.gen.calls != 0 {
				t.Fatalf("generator called")
			}
		})
	}
}

func TestEmptyAndUnreadableDocuments(t *testing.T) {
	s := newTestServer(t, "key")

	s.ext.text = "  \n\t "
	rec := s.post(t, "/generate", nil, pdfBytes)
	if rec.Code != http.StatusUnprocessableEntity || decodeError(t, rec).Code != "empty_document" {
		t.Fatalf("empty text: got=%d body=%s", rec.Code, rec.Body.String())
	}

	s.ext.err = apperr.Extraction(errors.New("malformed PDF"))
	rec = s.post(t, "/generate", nil, pdfBytes)
	if rec.Code != http.StatusUnprocessableEntity || decodeError(t, rec).Code != string(apperr.KindExtraction) {
		t.Fatalf("bad pdf: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if s.gen.calls != 0 {
		t.Fatalf("generator called %d times", s.gen.calls)
	}
}

func TestExtractReturnsPreview(t *testing.T) {
	s := newTestServer(t, "")
	s.ext.text = strings.Repeat("あ", 600)

	rec := s.post(t, "/extract", nil, pdfBytes)
	if rec.Code != http.StatusOK {
		t.Fatalf("got=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp ExtractResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Filename != "lecture.pdf" || resp.Chars != 600 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if want := strings.Repeat("あ", 500) + "..."; resp.Preview != want {
		t.Fatalf("preview has %d runes", len([]rune(resp.Preview)))
	}
}

func TestNoQuizYet(t *testing.T) {
	s := newTestServer(t, "")

	for _, path := range []string{"/current", "/download/csv"} {
		rec := s.get(path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: got=%d want=%d", path, rec.Code, http.StatusNotFound)
		}
	}
	if rec := s.get("/download/pdf"); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format: got=%d", rec.Code)
	}
}

func TestUsageCountsOnlySuccesses(t *testing.T) {
	s := newTestServer(t, "key")

	for i := 0; i < 3; i++ {
		if rec := s.post(t, "/generate", nil, pdfBytes); rec.Code != http.StatusOK {
			t.Fatalf("generate %d: got=%d", i, rec.Code)
		}
	}
	s.gen.err = apperr.API(errors.New("unavailable"))
	s.post(t, "/generate", nil, pdfBytes)

	u := statusUsage(t, s)
	if u.Generations != 3 || u.RemainingCredit != 4.97 || u.Status != usage.StatusOK {
		t.Fatalf("unexpected usage: %+v", u)
	}
}

func TestStatusForMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperr.ErrInvalidArgument, http.StatusBadRequest},
		{apperr.Auth(apperr.ErrMissingAPIKey), http.StatusUnauthorized},
		{apperr.Extraction(errors.New("x")), http.StatusUnprocessableEntity},
		{apperr.API(errors.New("x")), http.StatusBadGateway},
		{apperr.Parse(errors.New("x"), "raw"), http.StatusBadGateway},
		{errNoQuiz, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got, _ := statusFor(tc.err); got != tc.code {
			t.Errorf("statusFor(%v): got=%d want=%d", tc.err, got, tc.code)
		}
	}
}
