package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sells-group/factcheck/pkg/anthropic"
)

// Distinctive fragments of each stage's system prompt, used to route stub
// responses without rules ever depending on prompt wording twice.
const (
	sysSelection      = "only contains verifiable information"
	sysDisambiguation = `"decontextualize"`
	sysDecomposition  = "group of fact-checkers"
	sysValidation     = "complete, declarative sentence"
	sysQueryGen       = "expert search query generator"
	sysQueryGenRetry  = "NEW and IMPROVED"
	sysEvaluation     = "meticulous fact-checking AI"
	sysSummary        = "closing summary of a fact-check report"
)

// stubRule matches a CreateMessage call by substrings of the system and user
// prompts. An empty userContains matches any user prompt. Rules are checked
// in order, so put the more specific rule first.
type stubRule struct {
	systemContains string
	userContains   string
	reply          string
	err            error
}

// stubClient is a rule-driven anthropic.Client for tests.
type stubClient struct {
	mu    sync.Mutex
	rules []stubRule
	calls []anthropic.MessageRequest
}

var _ anthropic.Client = (*stubClient)(nil)

func newStubClient(rules ...stubRule) *stubClient {
	return &stubClient{rules: rules}
}

func (s *stubClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	user := ""
	if len(req.Messages) > 0 {
		user = req.Messages[len(req.Messages)-1].Content
	}
	for _, r := range s.rules {
		if !strings.Contains(req.System, r.systemContains) {
			continue
		}
		if r.userContains != "" && !strings.Contains(user, r.userContains) {
			continue
		}
		if r.err != nil {
			return nil, r.err
		}
		return &anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: r.reply}},
			Usage:   anthropic.TokenUsage{InputTokens: 7, OutputTokens: 3},
		}, nil
	}
	return nil, fmt.Errorf("no stub rule for system %q user %q", req.System[:min(len(req.System), 60)], user)
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// callsMatching counts recorded calls whose system prompt contains the given
// fragment.
func (s *stubClient) callsMatching(systemContains string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.Contains(c.System, systemContains) {
			n++
		}
	}
	return n
}

// passthroughRules builds the rule set for a pipeline where every sentence
// survives each stage unchanged and decomposes into itself as a single claim.
// Extraction rules key on the "Sentence:" line because the excerpt above it
// contains neighboring sentences too.
func passthroughRules(sentence string) []stubRule {
	return []stubRule{
		{systemContains: sysSelection, userContains: "Sentence:\n" + sentence,
			reply: `{"processed_sentence": ` + quoted(sentence) + `, "no_verifiable_claims": false, "remains_unchanged": true}`},
		{systemContains: sysDisambiguation, userContains: "Sentence:\n" + sentence,
			reply: `{"disambiguated_sentence": ` + quoted(sentence) + `, "cannot_be_disambiguated": false}`},
		{systemContains: sysDecomposition, userContains: "Sentence:\n" + sentence,
			reply: `{"claims": [` + quoted(sentence) + `], "no_claims": false}`},
		{systemContains: sysValidation, userContains: "Claim:\n" + sentence,
			reply: `{"is_complete_declarative": true}`},
	}
}

func quoted(s string) string {
	return fmt.Sprintf("%q", s)
}
