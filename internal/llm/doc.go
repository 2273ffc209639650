// Package llm turns free-form text into routed, typed records with the help
// of an external inference service. It owns the inference client contract and
// its provider adapters, the tiered response parser, and the Classifier that
// drives retries, trust decisions and the heuristic fallback.
package llm
