package models

// Candidate is a provider-proposed movie title with the provider's
// rationale. Reason may be empty when the provider omits it.
type Candidate struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Movie is a candidate resolved against the TMDb catalog. CatalogID is the
// TMDb movie ID and the sole identity key for deduplication and roulette
// membership.
type Movie struct {
	CatalogID   int     `json:"catalogId"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"posterPath,omitempty"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"releaseDate"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// Credits holds the subset of TMDb credits surfaced on a roulette winner.
type Credits struct {
	Director string   `json:"director,omitempty"`
	Cast     []string `json:"cast,omitempty"`
}

// WatchOffers lists streaming and purchase options for one region.
type WatchOffers struct {
	Flatrate []string `json:"flatrate,omitempty"`
	Buy      []string `json:"buy,omitempty"`
}

// WinnerDetail is a Movie extended with best-effort detail fetched at spin
// time. Every extended field may be absent; the base Movie fields are always
// present.
type WinnerDetail struct {
	Movie

	Runtime        int          `json:"runtime,omitempty"`
	Genres         []string     `json:"genres,omitempty"`
	Credits        *Credits     `json:"credits,omitempty"`
	WatchProviders *WatchOffers `json:"watchProviders,omitempty"`
	WatchRegion    string       `json:"watchRegion,omitempty"`
}
