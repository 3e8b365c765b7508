package llm

import (
	"fmt"
	"strings"
)

const extractionSystemPrompt = `You are a historian's research assistant. Extract historical thinkers, events, connections, publications, and quotes from the given text.

Output a single JSON object with this exact shape (no markdown fences, no commentary):
{
  "thinkers": [{"name": "...", "birth_year": 1724, "death_year": 1804, "era": "...", "discipline": "...", "nationality": "...", "notes": "...", "confidence": 0.9, "evidence": ["literal quote from the text"]}],
  "events": [{"name": "...", "year": 1781, "event_type": "...", "notes": "...", "confidence": 0.8, "evidence": ["..."]}],
  "connections": [{"from_name": "...", "to_name": "...", "rel_type": "influenced", "strength": 0.7, "notes": "...", "confidence": 0.8, "evidence": ["..."]}],
  "publications": [{"thinker_name": "...", "title": "...", "year": 1781, "pub_type": "...", "notes": "...", "confidence": 0.8, "evidence": ["..."]}],
  "quotes": [{"thinker_name": "...", "text": "...", "source": "...", "confidence": 0.9, "evidence": ["..."]}]
}

Guidelines:
- Allowed rel_type values: influenced, critiqued, built_upon, synthesized
- Connections are directed: from_name acted on to_name ("A influenced B" means A is from_name)
- Every evidence entry MUST be a literal, contiguous excerpt copied from the text
- Only extract people who are intellectual figures (philosophers, scientists, writers, theorists)
- Omit fields you cannot ground in the text rather than guessing
- confidence is your certainty the extraction is correct, between 0 and 1`

func extractionUserPrompt(chunkText string, knownNames []string) string {
	known := ""
	if len(knownNames) > 0 {
		known = fmt.Sprintf("\nThinkers already extracted from earlier parts of this document (reuse these exact names when the text refers to the same person):\n%s\n", strings.Join(knownNames, ", "))
	}
	return fmt.Sprintf(`Text:
%s
%s
JSON:`, chunkText, known)
}

const salvageSystemPrompt = `You are a historian's research assistant. The thinkers below were already extracted from the text; your job is to find directed relationships between them that the text supports, plus any dated events or publications that were missed. Do not return new thinkers or quotes.

Output a single JSON object (no markdown fences, no commentary):
{
  "connections": [{"from_name": "...", "to_name": "...", "rel_type": "influenced", "strength": 0.7, "notes": "...", "confidence": 0.8, "evidence": ["literal quote from the text"]}],
  "events": [{"name": "...", "year": 1781, "event_type": "publication", "confidence": 0.7, "evidence": ["literal quote from the text"]}],
  "publications": [{"thinker_name": "...", "title": "...", "year": 1781, "confidence": 0.7, "evidence": ["literal quote from the text"]}]
}

Guidelines:
- Allowed rel_type values: influenced, critiqued, built_upon, synthesized
- Only use names from the provided thinker list, spelled exactly as given
- Every evidence entry MUST be a literal, contiguous excerpt copied from the text
- Return {"connections": []} if the text supports nothing new`

func salvageUserPrompt(chunkText string, thinkerNames []string) string {
	return fmt.Sprintf(`Thinkers: %s

Text:
%s

JSON:`, strings.Join(thinkerNames, ", "), chunkText)
}

const enrichSystemPrompt = `You are a historian's reference assistant. For each listed thinker, provide birth and death years from general historical knowledge.

Output a single JSON object (no markdown fences, no commentary):
{
  "thinkers": [{"name": "...", "birth_year": 1724, "death_year": 1804, "confidence": 0.9}]
}

Guidelines:
- Use the names exactly as given
- Omit birth_year or death_year if unknown (use null, not a guess); living thinkers have null death_year
- confidence reflects how certain you are these years belong to this specific person`

func enrichUserPrompt(thinkerNames []string) string {
	return fmt.Sprintf(`Thinkers:
%s

JSON:`, strings.Join(thinkerNames, "\n"))
}
