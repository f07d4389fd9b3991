package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/gl-gateway/gl-gateway/internal/apierr"
)

type noopInstance struct{ Base }

func (n *noopInstance) Handle(context.Context, Verb, []string) (any, error) { return nil, nil }

func newNoop(req *Request) Instance { return &noopInstance{Base: NewBase(req)} }

func TestDescriptorValidate(t *testing.T) {
	cases := []struct {
		name    string
		desc    Descriptor
		wantErr bool
	}{
		{name: "ok", desc: Descriptor{Name: "ok", Methods: []Verb{GET}, New: newNoop}},
		{name: "missing name", desc: Descriptor{Methods: []Verb{GET}, New: newNoop}, wantErr: true},
		{name: "missing factory", desc: Descriptor{Name: "x", Methods: []Verb{GET}}, wantErr: true},
		{name: "no verbs", desc: Descriptor{Name: "x", New: newNoop}, wantErr: true},
		{name: "head verb", desc: Descriptor{Name: "x", Methods: []Verb{"HEAD"}, New: newNoop}, wantErr: true},
		{name: "duplicate", desc: Descriptor{Name: "x", Methods: []Verb{GET, GET}, New: newNoop}, wantErr: true},
		{name: "upload without write", desc: Descriptor{Name: "x", Methods: []Verb{GET}, UploadHandler: true, New: newNoop}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.desc.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseVerb(t *testing.T) {
	if v, ok := ParseVerb("head"); !ok || v != GET {
		t.Fatalf("HEAD should map to GET, got %s %v", v, ok)
	}
	if _, ok := ParseVerb("PATCH"); ok {
		t.Fatalf("PATCH is not a supported verb")
	}
}

func TestBaseUploadIgnoresEmptyFile(t *testing.T) {
	b := NewBase(&Request{})
	if err := b.ProcessFileUpload(context.Background(), &Upload{Filename: "empty"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.UploadedFile() != nil {
		t.Fatalf("empty upload must be treated as absent")
	}
	_ = b.ProcessFileUpload(context.Background(), &Upload{Filename: "logo.png", Body: []byte{1}})
	if b.UploadedFile() == nil || b.UploadedFile().Filename != "logo.png" {
		t.Fatalf("upload not recorded")
	}
}

type orderPayload struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func TestDecode(t *testing.T) {
	var p orderPayload
	if err := Decode(&Request{Body: []byte(`{"ids":["a"]}`)}, &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Decode(&Request{Body: []byte(`{"ids":[]}`)}, &orderPayload{})
	apiErr, ok := apierr.As(err)
	if !ok || apiErr.Kind != apierr.KindInputValidationError {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(apiErr.Arguments) != 1 || apiErr.Arguments[0] != "ids" {
		t.Fatalf("expected json field name in arguments, got %v", apiErr.Arguments)
	}

	if err := Decode(&Request{Body: []byte(`{`)}, &orderPayload{}); !errors.Is(err, apierr.Validation("")) {
		t.Fatalf("malformed json should be a validation error, got %v", err)
	}
}
