package model

// ContextualSentence is one sentence from the answer text together with
// enough surrounding context (question plus neighboring sentences) for a
// later stage to resolve references without re-reading the whole answer.
type ContextualSentence struct {
	OriginalSentence string `json:"original_sentence"`
	ContextForLLM    string `json:"context_for_llm"`
	Question         string `json:"question"`
	OriginalIndex    int    `json:"original_index"`
}

// SelectedContent is a sentence the selection stage judged check-worthy,
// possibly rewritten to isolate its verifiable content.
type SelectedContent struct {
	ProcessedSentence   string             `json:"processed_sentence"`
	OriginalContextItem ContextualSentence `json:"original_context_item"`
}

// DisambiguatedContent is selected content with pronouns and implicit
// references resolved so the sentence stands on its own.
type DisambiguatedContent struct {
	DisambiguatedSentence string          `json:"disambiguated_sentence"`
	OriginalSelectedItem  SelectedContent `json:"original_selected_item"`
}

// PotentialClaim is a single atomic factual statement decomposed out of a
// disambiguated sentence. OriginalIndex points back at the source sentence
// so consumers correlate by index, never by text matching.
type PotentialClaim struct {
	ClaimText             string `json:"claim_text"`
	DisambiguatedSentence string `json:"disambiguated_sentence"`
	OriginalSentence      string `json:"original_sentence"`
	OriginalIndex         int    `json:"original_index"`
}

// ValidatedClaim is a potential claim confirmed to be a complete,
// declarative, checkable statement. Claims failing validation never reach
// the verifier.
type ValidatedClaim struct {
	ClaimText             string `json:"claim_text"`
	IsCompleteDeclarative bool   `json:"is_complete_declarative"`
	DisambiguatedSentence string `json:"disambiguated_sentence"`
	OriginalSentence      string `json:"original_sentence"`
	OriginalIndex         int    `json:"original_index"`
}
