package storage

const ns = "citypulse:v1"

// Fixed keys of the durable records, one per logical table.
const (
	KeyFavorites  = ns + ":favorites"
	KeyEventCache = ns + ":event_cache"
	KeyLanguage   = ns + ":language"
)

var allKeys = []string{KeyFavorites, KeyEventCache, KeyLanguage}
