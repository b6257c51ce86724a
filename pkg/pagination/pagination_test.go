package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return FromContext(c)
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "/")

	if p.Page != 1 {
		t.Errorf("expected default page 1, got %d", p.Page)
	}
	if p.PageSize != DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", DefaultPageSize, p.PageSize)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := paramsFor(t, "/?page=3&page_size=50")

	if p.Page != 3 {
		t.Errorf("expected page 3, got %d", p.Page)
	}
	if p.PageSize != 50 {
		t.Errorf("expected page size 50, got %d", p.PageSize)
	}
}

func TestFromContext_MaxPageSize(t *testing.T) {
	p := paramsFor(t, "/?page_size=500")

	if p.PageSize != MaxPageSize {
		t.Errorf("expected page size capped at %d, got %d", MaxPageSize, p.PageSize)
	}
}

func TestFromContext_InvalidValues(t *testing.T) {
	for _, target := range []string{"/?page=0", "/?page=-2", "/?page=abc"} {
		p := paramsFor(t, target)
		if p.Page != 1 {
			t.Errorf("%s: expected page 1, got %d", target, p.Page)
		}
	}
}

func TestParams_Offset(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   int
	}{
		{"first page", Params{Page: 1, PageSize: 20}, 0},
		{"second page", Params{Page: 2, PageSize: 20}, 20},
		{"deep page", Params{Page: 5, PageSize: 10}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Offset(); got != tt.want {
				t.Errorf("Offset() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSQL(t *testing.T) {
	p := Params{Page: 3, PageSize: 20}
	expected := "LIMIT 20 OFFSET 40"
	if p.SQL() != expected {
		t.Errorf("expected %q, got %q", expected, p.SQL())
	}
}

func TestParams_TotalPages(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   int
	}{
		{"exact fit", Params{Page: 1, PageSize: 10}, 30, 3},
		{"partial last page", Params{Page: 1, PageSize: 10}, 25, 3},
		{"single row", Params{Page: 1, PageSize: 10}, 1, 1},
		{"empty", Params{Page: 1, PageSize: 10}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.TotalPages(tt.total); got != tt.want {
				t.Errorf("TotalPages(%d) = %d, want %d", tt.total, got, tt.want)
			}
		})
	}
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   bool
	}{
		{"more results", Params{Page: 1, PageSize: 10}, 25, true},
		{"last page", Params{Page: 3, PageSize: 10}, 25, false},
		{"past end", Params{Page: 5, PageSize: 10}, 25, false},
		{"no results", Params{Page: 1, PageSize: 10}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.HasNext(tt.total); got != tt.want {
				t.Errorf("HasNext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b", "c"}
	r := NewResponse(data, 25, Params{Page: 2, PageSize: 10})

	if r.Page != 2 {
		t.Errorf("expected page 2, got %d", r.Page)
	}
	if r.PageSize != 10 {
		t.Errorf("expected page size 10, got %d", r.PageSize)
	}
	if r.Total != 25 {
		t.Errorf("expected total 25, got %d", r.Total)
	}
	if r.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", r.TotalPages)
	}
}
