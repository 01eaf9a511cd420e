package assistant

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"github.com/nao1215/plantdoc/internal/backend"
	"github.com/nao1215/plantdoc/internal/locale"
)

func newServerAssistant(t *testing.T, handler http.HandlerFunc, tag language.Tag) *Assistant {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := backend.NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	return New(client, locale.For(tag))
}

func TestAsk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		tag         language.Tag
		wantText    string
		wantApology bool
	}{
		{
			name: "success returns the backend answer",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"status":"success","response":"Water at the base, not on the leaves."}`)
			},
			tag:      language.English,
			wantText: "Water at the base, not on the leaves.",
		},
		{
			name: "error status becomes the unavailable apology",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"status":"error","response":""}`)
			},
			tag:         language.French,
			wantText:    "Désolé, je rencontre un problème de connexion avec mon cerveau.",
			wantApology: true,
		},
		{
			name: "http 500 becomes the unavailable apology",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			tag:         language.English,
			wantText:    "Sorry, I'm having trouble connecting to my brain.",
			wantApology: true,
		},
		{
			name: "malformed body becomes the network apology",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `<html>`)
			},
			tag:         language.French,
			wantText:    "Erreur réseau. Le serveur de diagnostic est-il allumé ?",
			wantApology: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := newServerAssistant(t, tt.handler, tt.tag)
			reply, err := a.Ask(context.Background(), "Why are my leaves yellow?")
			if err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if reply.Text != tt.wantText || reply.Apology != tt.wantApology {
				t.Errorf("Ask() = %+v, want text %q apology %v", reply, tt.wantText, tt.wantApology)
			}
		})
	}
}

func TestAskUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := backend.NewClient(url)
	if err != nil {
		t.Fatal(err)
	}
	a := New(client, locale.For(language.English))

	reply, err := a.Ask(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Apology || reply.Text != "Network error. Is the diagnosis server running?" {
		t.Errorf("Ask() = %+v", reply)
	}
}

// stubChatter records whether it was called.
type stubChatter struct {
	called bool
}

func (s *stubChatter) Chat(context.Context, string) (*backend.ChatResponse, error) {
	s.called = true
	return &backend.ChatResponse{Status: backend.StatusSuccess, Response: "ok"}, nil
}

func TestAskEmptyMessage(t *testing.T) {
	t.Parallel()

	stub := &stubChatter{}
	a := New(stub, locale.For(language.English))

	if _, err := a.Ask(context.Background(), "  \n "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if stub.called {
		t.Error("blank message must not reach the backend")
	}
	if got := len(a.History()); got != 1 {
		t.Errorf("history length = %d, want only the welcome", got)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	a := New(&stubChatter{}, locale.For(language.French))
	if a.Welcome() != a.History()[0].Text {
		t.Error("history should start with the welcome greeting")
	}

	if _, err := a.Ask(context.Background(), " mildiou ? "); err != nil {
		t.Fatal(err)
	}

	h := a.History()
	want := []Turn{
		{Role: RoleAssistant, Text: a.Welcome()},
		{Role: RoleUser, Text: "mildiou ?"},
		{Role: RoleAssistant, Text: "ok"},
	}
	if len(h) != len(want) {
		t.Fatalf("History() = %v", h)
	}
	for i := range want {
		if h[i] != want[i] {
			t.Errorf("History()[%d] = %+v, want %+v", i, h[i], want[i])
		}
	}

	h[0].Text = "mutated"
	if a.History()[0].Text == "mutated" {
		t.Error("History() must return a copy")
	}
}
