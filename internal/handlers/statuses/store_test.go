package statuses

import (
	"context"
	"testing"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
)

func TestListOrdersSystemStatuses(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	b, _ := store.Create(ctx, 1, 2, map[string]string{"en": "B"})
	a, _ := store.Create(ctx, 1, 1, map[string]string{"en": "A"})

	list, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	got := make([]string, 0, len(list))
	for _, s := range list {
		got = append(got, s.ID)
	}
	want := []string{StatusNew, StatusOpened, a.ID, b.ID, StatusClosed}
	if len(got) != len(want) {
		t.Fatalf("unexpected list: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s (%v)", i, got[i], want[i], got)
		}
	}

	other, _ := store.List(ctx, 2)
	if len(other) != 3 {
		t.Fatalf("tenants must be isolated, got %d statuses", len(other))
	}
}

func TestReorderValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	custom, _ := store.Create(ctx, 1, 0, map[string]string{"en": "Custom"})

	full := []string{StatusClosed, custom.ID, StatusOpened, StatusNew}
	if err := store.Reorder(ctx, 1, full); err != nil {
		t.Fatalf("complete permutation should be accepted: %v", err)
	}

	cases := map[string][]string{
		"missing":   {StatusNew, StatusOpened, StatusClosed},
		"extra":     {StatusNew, StatusOpened, StatusClosed, custom.ID, "ghost"},
		"unknown":   {StatusNew, StatusOpened, StatusClosed, "ghost"},
		"duplicate": {StatusNew, StatusOpened, StatusClosed, StatusNew},
	}
	for name, ids := range cases {
		err := store.Reorder(ctx, 1, ids)
		apiErr, ok := apierr.As(err)
		if !ok || apiErr.Kind != apierr.KindInputValidationError {
			t.Fatalf("%s: expected InputValidationError, got %v", name, err)
		}
	}
}

func TestSubstatusReorder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	first, _ := store.CreateSub(ctx, 1, StatusClosed, 0, map[string]string{"en": "Spam"})
	second, _ := store.CreateSub(ctx, 1, StatusClosed, 1, map[string]string{"en": "Duplicate"})

	if err := store.ReorderSub(ctx, 1, StatusClosed, []string{second.ID, first.ID}); err != nil {
		t.Fatalf("ReorderSub error: %v", err)
	}
	closed, _ := store.Get(ctx, 1, StatusClosed)
	if closed.Substatuses[0].ID != second.ID {
		t.Fatalf("reorder not applied: %+v", closed.Substatuses)
	}

	if err := store.ReorderSub(ctx, 1, StatusClosed, []string{first.ID}); err == nil {
		t.Fatalf("partial list must be rejected")
	}
	if _, err := store.CreateSub(ctx, 1, "missing", 0, nil); err == nil {
		t.Fatalf("unknown parent must fail")
	}
}

func TestDeleteSystemStatusForbidden(t *testing.T) {
	store := NewMemoryStore()
	err := store.Delete(context.Background(), 1, StatusNew)
	if apiErr, ok := apierr.As(err); !ok || apiErr.Kind != apierr.KindForbiddenOperation {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
