package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/raphaelgruber/chronicle-go/internal/models"
)

// NormalizeName lowercases and collapses whitespace for identity comparison.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// candidateID derives a stable id from a type-specific semantic key, so
// merging identical input twice yields the identical candidate-id set.
func candidateID(entityType models.EntityType, keyParts ...string) string {
	key := string(entityType) + "|" + strings.Join(keyParts, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:24]
}

// ThinkerCandidateID keys a thinker by normalized name.
func ThinkerCandidateID(name string) string {
	return candidateID(models.EntityThinker, NormalizeName(name))
}

// EventCandidateID keys an event by normalized name plus year.
func EventCandidateID(name string, year *int) string {
	y := ""
	if year != nil {
		y = fmt.Sprintf("%d", *year)
	}
	return candidateID(models.EntityEvent, NormalizeName(name), y)
}

// ConnectionCandidateID keys a connection by the ordered endpoint names and
// relation type.
func ConnectionCandidateID(fromName, toName, relType string) string {
	return candidateID(models.EntityConnection, NormalizeName(fromName), NormalizeName(toName), relType)
}

// PublicationCandidateID keys a publication by owner, normalized title, year.
func PublicationCandidateID(ownerName, title string, year *int) string {
	y := ""
	if year != nil {
		y = fmt.Sprintf("%d", *year)
	}
	return candidateID(models.EntityPublication, NormalizeName(ownerName), NormalizeName(title), y)
}

// QuoteCandidateID keys a quote by owner and normalized text.
func QuoteCandidateID(ownerName, text string) string {
	return candidateID(models.EntityQuote, NormalizeName(ownerName), NormalizeName(text))
}
