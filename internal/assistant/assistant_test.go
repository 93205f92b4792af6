package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dose-go/internal/dose"
)

type fakeClient struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeClient) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

func TestAssistant_AppendsDisclaimer(t *testing.T) {
	a := New(&fakeClient{answer: "  Ibuprofen relieves pain.  "}, dose.NewNopLogger())

	got := a.Explain(context.Background(), "Ibuprofen")

	want := "Ibuprofen relieves pain.\n\n" + Disclaimer
	if got != want {
		t.Errorf("Explain() = %q, want %q", got, want)
	}
}

func TestAssistant_Failures(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{name: "error", client: &fakeClient{err: errors.New("quota exceeded")}},
		{name: "empty answer", client: &fakeClient{answer: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.client, dose.NewNopLogger())
			if got := a.Ask(context.Background(), "m1", "Ibuprofen", "With food?"); got != FriendlyError {
				t.Errorf("Ask() = %q, want FriendlyError", got)
			}
		})
	}
}

func TestAssistant_AskPrompts(t *testing.T) {
	client := &fakeClient{answer: "ok"}
	a := New(client, dose.NewNopLogger())

	a.Ask(context.Background(), "m1", "Metformin", "Can I take it at night?")
	a.Ask(context.Background(), "m1", "Metformin", "   ")

	if len(client.prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(client.prompts))
	}
	if !strings.Contains(client.prompts[0], "Can I take it at night?") {
		t.Errorf("question prompt = %q, missing question", client.prompts[0])
	}
	if client.prompts[1] != explainPrompt("Metformin") {
		t.Errorf("blank question prompt = %q, want explain prompt", client.prompts[1])
	}
}

func TestAssistant_ConversationsForget(t *testing.T) {
	a := New(&fakeClient{answer: "ok"}, dose.NewNopLogger())

	a.Ask(context.Background(), "m1", "Metformin", "first")
	a.Ask(context.Background(), "m1", "Metformin", "second")
	a.Ask(context.Background(), "m2", "Aspirin", "")

	h := a.Conversations().History("m1")
	if len(h) != 2 || h[0].Question != "first" || h[1].Question != "second" {
		t.Fatalf("History(m1) = %+v", h)
	}

	a.Forget("m1")
	if h := a.Conversations().History("m1"); len(h) != 0 {
		t.Errorf("History(m1) after Forget = %+v, want empty", h)
	}
	if h := a.Conversations().History("m2"); len(h) != 1 {
		t.Errorf("History(m2) = %+v, want one exchange", h)
	}
}
