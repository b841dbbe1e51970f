package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by entity type so two entities never share a key.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageUUID identifies the stored row of a page record in one language.
func PageUUID(pageID int64, language string) uuid.UUID {
	return UUID("go-sitekit:page:" + strconv.FormatInt(pageID, 10) + ":" + normalizeLanguage(language))
}

// ContentUUID identifies the content document of a page in one language.
func ContentUUID(pageID int64, language string) uuid.UUID {
	return UUID("go-sitekit:page_content:" + strconv.FormatInt(pageID, 10) + ":" + normalizeLanguage(language))
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
