package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestGetParams(t *testing.T) {
	tests := []struct {
		query      string
		page       int
		limit      int
		wantOffset int
	}{
		{"", 1, DefaultLimit, 0},
		{"?page=3&limit=20", 3, 20, 40},
		{"?page=0&limit=-1", 1, DefaultLimit, 0},
		{"?limit=100000", 1, MaxLimit, 0},
		{"?page=abc", 1, DefaultLimit, 0},
	}

	for _, tt := range tests {
		app := fiber.New()
		var got *Params
		app.Get("/", func(c *fiber.Ctx) error {
			got = GetParams(c)
			return nil
		})
		if _, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil)); err != nil {
			t.Fatalf("%q: %v", tt.query, err)
		}
		if got.Page != tt.page || got.Limit != tt.limit || got.Offset != tt.wantOffset {
			t.Errorf("%q: got %+v", tt.query, got)
		}
	}
}

func TestGetMeta(t *testing.T) {
	m := GetMeta(&Params{Page: 2, Limit: 10}, 25)
	if m.TotalPages != 3 || !m.HasNext || !m.HasPrev {
		t.Fatalf("got %+v", m)
	}
	m = GetMeta(&Params{Page: 1, Limit: 10}, 0)
	if m.TotalPages != 0 || m.HasNext || m.HasPrev {
		t.Fatalf("got %+v", m)
	}
}
