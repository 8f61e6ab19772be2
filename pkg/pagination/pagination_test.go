package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, rawQuery string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("expected page=1 limit=%d, got %+v", DefaultLimit, p)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := paramsFor(t, "page=3&limit=25")
	if p.Page != 3 || p.Limit != 25 {
		t.Errorf("expected page=3 limit=25, got %+v", p)
	}
	if p.Skip() != 50 {
		t.Errorf("expected skip 50, got %d", p.Skip())
	}
}

func TestFromContext_ClampsNonPositive(t *testing.T) {
	for _, q := range []string{"page=0&limit=0", "page=-5&limit=-1", "page=abc&limit=xyz"} {
		p := paramsFor(t, q)
		if p.Page != 1 || p.Limit != DefaultLimit {
			t.Errorf("query %q: expected clamped defaults, got %+v", q, p)
		}
	}
}

func TestFromContext_ClampsMaxLimit(t *testing.T) {
	p := paramsFor(t, "limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("expected limit %d, got %d", MaxLimit, p.Limit)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		limit, total, want int
	}{
		{10, 0, 0},
		{10, 1, 1},
		{10, 10, 1},
		{10, 11, 2},
		{10, 25, 3},
		{7, 25, 4},
	}
	for _, tc := range cases {
		p := Params{Page: 1, Limit: tc.limit}
		if got := p.TotalPages(tc.total); got != tc.want {
			t.Errorf("limit=%d total=%d: expected %d pages, got %d", tc.limit, tc.total, tc.want, got)
		}
	}
}
