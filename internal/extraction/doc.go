// Package extraction turns meeting transcripts into task records using
// lexical heuristics.
//
// The package supports:
//   - UAX #29 sentence segmentation of free text
//   - Action keyword detection to decide which sentences are tasks
//   - Priority, deadline and rationale inference from ordered keyword tables
//   - Owner detection by roster name mention
//
// # Architecture
//
// The main components are:
//   - Extractor: Sentence-by-sentence task extraction
//   - Config: Keyword tables and patterns, immutable after construction
//   - Clock: Time source used to resolve relative deadlines
//
// # Usage
//
// Create an extractor with the default tables:
//
//	extractor, err := extraction.NewExtractor(extraction.DefaultConfig())
//
// Extract tasks from a transcript:
//
//	records, err := extractor.ExtractText(transcript, roster)
//	for _, r := range records {
//	    fmt.Printf("%d: %s (%s)\n", r.ID, r.Description, r.Priority)
//	}
//
// # Ordering
//
// Every table is scanned in order and the first match wins. Priority levels
// are checked from Critical to Low, deadline phrases from most to least
// specific, and roster members in roster order. Reordering a table changes
// results, so overrides must keep specific entries ahead of generic ones.
package extraction
