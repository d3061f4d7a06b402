package domain

// Outcome classifies how a pipeline run ended.
type Outcome string

const (
	OutcomeAnswered          Outcome = "answered"
	OutcomeNoCandidates      Outcome = "no_candidates"      // retrieval returned nothing
	OutcomeAllFilteredOut    Outcome = "all_filtered_out"   // every candidate judged not relevant
	OutcomeDeferredHighlight Outcome = "deferred_highlight" // answered, highlight left to the client
)

// NoRelevantDocumentsText is the response text for an empty outcome.
const NoRelevantDocumentsText = "No relevant code chunks found."

// Highlight markers wrapped around the aligned span.
const (
	HighlightOpen  = "<mark>"
	HighlightClose = "</mark>"
)
