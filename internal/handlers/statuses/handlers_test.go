package statuses

import (
	"context"
	"testing"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
	"github.com/gl-gateway/gl-gateway/internal/handler"
	"github.com/gl-gateway/gl-gateway/internal/tenant"
)

func newRequest(lang, body string) *handler.Request {
	return &handler.Request{
		TenantID: 1,
		Tenant:   &tenant.Tenant{ID: 1, DefaultLanguage: "en"},
		Language: lang,
		Body:     []byte(body),
	}
}

func TestCollectionCreateAndList(t *testing.T) {
	repo := NewMemoryStore()
	desc := CollectionDescriptor(repo)

	created, err := desc.New(newRequest("de", `{"label":"Geprüft","order":1}`)).Handle(context.Background(), handler.POST, nil)
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	view := created.(statusView)
	if view.Label != "Geprüft" {
		t.Fatalf("unexpected created label: %v", view.Label)
	}

	value, err := desc.New(newRequest("en", "")).Handle(context.Background(), handler.GET, nil)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	list := value.([]statusView)
	if len(list) != 4 || list[2].Label != "" {
		t.Fatalf("label missing in request language should be empty: %+v", list)
	}
	if list[0].Label != "New" {
		t.Fatalf("unexpected system label: %v", list[0].Label)
	}

	value, _ = desc.New(newRequest("", "")).Handle(context.Background(), handler.GET, nil)
	multi := value.([]statusView)
	labels, ok := multi[2].Label.(map[string]string)
	if !ok || labels["de"] != "Geprüft" {
		t.Fatalf("multilang listing should expose all translations: %+v", multi[2].Label)
	}
}

func TestCollectionOrderElements(t *testing.T) {
	repo := NewMemoryStore()
	desc := CollectionDescriptor(repo)

	_, err := desc.New(newRequest("en", `{"operation":"order_elements","args":{"ids":["new","closed"]}}`)).
		Handle(context.Background(), handler.PUT, nil)
	if apiErr, ok := apierr.As(err); !ok || apiErr.Kind != apierr.KindInputValidationError {
		t.Fatalf("expected InputValidationError, got %v", err)
	}

	_, err = desc.New(newRequest("en", `{"operation":"order_elements","args":{"ids":["closed","opened","new"]}}`)).
		Handle(context.Background(), handler.PUT, nil)
	if err != nil {
		t.Fatalf("valid reorder failed: %v", err)
	}

	_, err = desc.New(newRequest("en", `{"operation":"explode","args":{"ids":[]}}`)).
		Handle(context.Background(), handler.PUT, nil)
	if _, ok := apierr.As(err); !ok {
		t.Fatalf("unknown operation must be a validation error, got %v", err)
	}
}

func TestSubstatusHandlers(t *testing.T) {
	repo := NewMemoryStore()
	ctx := context.Background()

	created, err := SubCollectionDescriptor(repo).New(newRequest("en", `{"label":"Spam"}`)).Handle(ctx, handler.POST, []string{StatusClosed})
	if err != nil {
		t.Fatalf("POST substatus error: %v", err)
	}
	sub := created.(substatusView)
	if sub.SubmissionStatusID != StatusClosed {
		t.Fatalf("unexpected parent: %+v", sub)
	}

	if _, err := SubInstanceDescriptor(repo).New(newRequest("it", `{"label":"Posta indesiderata"}`)).Handle(ctx, handler.PUT, []string{StatusClosed, sub.ID}); err != nil {
		t.Fatalf("PUT substatus error: %v", err)
	}

	value, err := SubCollectionDescriptor(repo).New(newRequest("it", "")).Handle(ctx, handler.GET, []string{StatusClosed})
	if err != nil {
		t.Fatalf("GET substatuses error: %v", err)
	}
	subs := value.([]substatusView)
	if len(subs) != 1 || subs[0].Label != "Posta indesiderata" {
		t.Fatalf("unexpected substatuses: %+v", subs)
	}

	if _, err := SubInstanceDescriptor(repo).New(newRequest("en", "")).Handle(ctx, handler.DELETE, []string{StatusClosed, sub.ID}); err != nil {
		t.Fatalf("DELETE substatus error: %v", err)
	}
	if _, err := SubCollectionDescriptor(repo).New(newRequest("en", "")).Handle(ctx, handler.GET, []string{"11111111-2222-3333-4444-555555555555"}); err == nil {
		t.Fatalf("unknown parent should be not found")
	}
}

func TestDescriptorsValidate(t *testing.T) {
	repo := NewMemoryStore()
	for _, desc := range []handler.Descriptor{
		CollectionDescriptor(repo),
		InstanceDescriptor(repo),
		SubCollectionDescriptor(repo),
		SubInstanceDescriptor(repo),
	} {
		if err := desc.Validate(); err != nil {
			t.Fatalf("%s: %v", desc.Name, err)
		}
	}
}
