package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rosalee33/collab-vim/backend/internal/collab"
)

type fakeEngine struct {
	content  string
	revision uint64
	edits    []*collab.Edit
	saved    int
}

func (e *fakeEngine) DocID() string              { return "doc-test" }
func (e *fakeEngine) Snapshot() (string, uint64) { return e.content, e.revision }
func (e *fakeEngine) SubmitLocalEdit(ctx context.Context, edit *collab.Edit) error {
	e.edits = append(e.edits, edit)
	return nil
}
func (e *fakeEngine) SaveSnapshot(ctx context.Context) error {
	e.saved++
	return nil
}

func newTestRouter(eng Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAgentHandlers(eng, nil)
	r := gin.New()
	r.GET("/agent/doc", h.GetDocument)
	r.GET("/agent/members", h.GetMembers)
	r.POST("/agent/doc/save", h.SaveDocument)
	r.POST("/agent/edit", h.SubmitEdit)
	return r
}

func TestSubmitEdit_ValidEditReachesEngine(t *testing.T) {
	eng := &fakeEngine{}
	r := newTestRouter(eng)

	body := `{"collabedit_type":"replace_line","line":5,"text":"x"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/agent/edit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(eng.edits) != 1 {
		t.Fatalf("engine got %d edits, want 1", len(eng.edits))
	}
	e := eng.edits[0]
	if e.Type != collab.EditReplaceLine || e.Line != 5 || e.Text != "x" {
		t.Fatalf("engine edit = %+v", e)
	}
}

func TestSubmitEdit_MalformedRejectedWith400(t *testing.T) {
	eng := &fakeEngine{}
	r := newTestRouter(eng)

	bad := []string{
		`{"line":5,"text":"x"}`,                       // 缺判别字段
		`{"collabedit_type":"bogus","line":0}`,        // 未知类型
		`{"collabedit_type":"replace_line","line":5}`, // 缺 text
	}
	for _, body := range bad {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/agent/edit", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != 400 {
			t.Fatalf("body %s: status = %d, want 400", body, w.Code)
		}
	}
	if len(eng.edits) != 0 {
		t.Fatalf("engine got %d edits, want 0", len(eng.edits))
	}
}

func TestGetDocument(t *testing.T) {
	eng := &fakeEngine{content: "hello\nworld", revision: 7}
	r := newTestRouter(eng)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/agent/doc", nil))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	got := w.Body.String()
	if !strings.Contains(got, `"revision":7`) || !strings.Contains(got, "hello") {
		t.Fatalf("body = %s", got)
	}
}

func TestSaveDocument(t *testing.T) {
	eng := &fakeEngine{}
	r := newTestRouter(eng)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/agent/doc/save", nil))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if eng.saved != 1 {
		t.Fatalf("saved %d times, want 1", eng.saved)
	}
}
