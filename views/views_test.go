package views

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewParsesEveryPage(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range pageNames {
		if v.pages[name] == nil {
			t.Errorf("page %q not parsed", name)
		}
	}
}

func TestRenderWritesFlashes(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	v.Render(w, r, "home", 200, Page{
		Flashes: []Flash{{Category: "success", Message: "Hello, alice"}},
	})
	if w.Code != 200 {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Hello, alice") {
		t.Error("flash message missing from the rendered page")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	v.Render(w, r, "no-such-page", 200, Page{})
	if w.Code != 500 {
		t.Errorf("status = %d, want 500 for an unknown template", w.Code)
	}
}
