// Package assistant answers free-text questions about a medication using a
// generative-text service.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"dose-go/internal/dose"
)

// Disclaimer is appended to every answer shown to the user.
const Disclaimer = "This information is general and not a substitute for advice from your doctor or pharmacist."

// FriendlyError replaces the answer when the service fails.
const FriendlyError = "Sorry, I couldn't get an answer right now. Please try again in a moment."

// Client generates text for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assistant wraps a Client with the prompt templates and answer contract.
// It never returns an error: failures become FriendlyError.
type Assistant struct {
	client        Client
	logger        dose.Logger
	conversations *Conversations
}

var (
	_ dose.Advisor   = (*Assistant)(nil)
	_ dose.Forgetter = (*Assistant)(nil)
)

func New(client Client, logger dose.Logger) *Assistant {
	return &Assistant{
		client:        client,
		logger:        logger,
		conversations: NewConversations(),
	}
}

// Explain describes what medName is typically used for.
func (a *Assistant) Explain(ctx context.Context, medName string) string {
	return a.answer(ctx, explainPrompt(medName))
}

// Ask answers question about the medication and records the exchange under
// medID. An empty question asks for an explanation.
func (a *Assistant) Ask(ctx context.Context, medID, medName, question string) string {
	question = strings.TrimSpace(question)
	prompt := explainPrompt(medName)
	if question != "" {
		prompt = questionPrompt(medName, question)
	}
	answer := a.answer(ctx, prompt)
	a.conversations.add(medID, Exchange{Question: question, Answer: answer})
	return answer
}

// Conversations returns the per-medication history.
func (a *Assistant) Conversations() *Conversations {
	return a.conversations
}

// Forget drops the history of a deleted medication.
func (a *Assistant) Forget(medID string) {
	a.conversations.Forget(medID)
}

func (a *Assistant) answer(ctx context.Context, prompt string) string {
	text, err := a.client.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("assistant request failed", "error", err)
		return FriendlyError
	}
	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Warn("assistant returned an empty answer")
		return FriendlyError
	}
	return text + "\n\n" + Disclaimer
}

func explainPrompt(medName string) string {
	return fmt.Sprintf("In two or three short paragraphs of plain language, explain what the medication %q is commonly used for, how it is usually taken, and its most common side effects.", medName)
}

func questionPrompt(medName, question string) string {
	return fmt.Sprintf("A patient taking the medication %q asks: %q. Answer briefly in plain language.", medName, question)
}
