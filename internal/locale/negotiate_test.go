package locale

import (
	"reflect"
	"testing"
)

func TestParseAcceptLanguageOrdersByWeight(t *testing.T) {
	got := ParseAcceptLanguage("fr;q=0.5,en;q=0.9,de")
	want := []string{"de", "en", "fr"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseAcceptLanguageStableForEqualWeights(t *testing.T) {
	got := ParseAcceptLanguage("it, es;q=0.8, pt, ca;q=0.8, xx;q=oops")
	want := []string{"it", "pt", "es", "ca", "xx"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNegotiate(t *testing.T) {
	enabled := []string{"en", "de"}

	testCases := []struct {
		name string
		in   Input
		want string
	}{
		{
			name: "highest weight among enabled",
			in:   Input{AcceptLanguage: "fr;q=0.5,en;q=0.9,de", Enabled: []string{"en"}, Default: "de"},
			want: "en",
		},
		{
			name: "unweighted enabled language wins",
			in:   Input{AcceptLanguage: "fr;q=0.5,en;q=0.9,de", Enabled: enabled, Default: "en"},
			want: "de",
		},
		{
			name: "no header falls back to default",
			in:   Input{Enabled: enabled, Default: "de"},
			want: "de",
		},
		{
			name: "no enabled candidate falls back to default",
			in:   Input{AcceptLanguage: "fr,it", Enabled: enabled, Default: "en"},
			want: "en",
		},
		{
			name: "explicit header used when enabled",
			in:   Input{Explicit: "de", HasExplicit: true, AcceptLanguage: "en", Enabled: enabled, Default: "en"},
			want: "de",
		},
		{
			name: "explicit header not enabled goes to default, not accept-language",
			in:   Input{Explicit: "fr", HasExplicit: true, AcceptLanguage: "de", Enabled: enabled, Default: "en"},
			want: "en",
		},
		{
			name: "multilang leaves language unset",
			in:   Input{Explicit: "de", HasExplicit: true, Multilang: true, Enabled: enabled, Default: "en"},
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Negotiate(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
