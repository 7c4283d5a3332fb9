package jellyseerr

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// MediaTypeMovie is the only media kind eligible for requests.
const MediaTypeMovie = "movie"

// Request status codes (MediaRequestStatus).
const (
	RequestPending   = 1
	RequestApproved  = 2
	RequestDeclined  = 3
	RequestFailed    = 4
	RequestCompleted = 5
)

// Media status codes (MediaStatus).
const (
	MediaUnknown            = 1
	MediaPending            = 2
	MediaProcessing         = 3
	MediaPartiallyAvailable = 4
	MediaAvailable          = 5
	MediaBlacklisted        = 6
	MediaDeleted            = 7
)

// DuplicateRequestMessage is the body fragment the catalog returns when a
// request for the same media already exists.
const DuplicateRequestMessage = "Request for this media already exists"

// StatusCode is a status field that may arrive as a number or a string.
type StatusCode struct {
	Code int
	Text string
}

// UnmarshalJSON accepts 2, "2" and "approved".
func (s *StatusCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = StatusCode{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			*s = StatusCode{Code: n}
			return nil
		}
		*s = StatusCode{Text: strings.ToLower(strings.TrimSpace(text))}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = StatusCode{Code: n}
	return nil
}

// MarshalJSON writes the numeric code when known, otherwise the text.
func (s StatusCode) MarshalJSON() ([]byte, error) {
	if s.Text != "" {
		return json.Marshal(s.Text)
	}
	return json.Marshal(s.Code)
}

// IsZero reports whether no status was present.
func (s StatusCode) IsZero() bool {
	return s.Code == 0 && s.Text == ""
}

// MediaInfo is the catalog's media row nested in search, request and movie
// responses.
type MediaInfo struct {
	ID           int        `json:"id"`
	TmdbID       *int       `json:"tmdbId,omitempty"`
	ImdbID       *string    `json:"imdbId,omitempty"`
	MediaType    string     `json:"mediaType,omitempty"`
	Status       StatusCode `json:"status"`
	Status4K     StatusCode `json:"status4k"`
	Title        string     `json:"title,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	MediaAddedAt *time.Time `json:"mediaAddedAt,omitempty"`
}

// SearchResult is one entry of a catalog search.
type SearchResult struct {
	ID        int        `json:"id"`
	TmdbID    *int       `json:"tmdbId,omitempty"`
	ImdbID    *string    `json:"imdbId,omitempty"`
	MediaType string     `json:"mediaType"`
	Title     string     `json:"title,omitempty"`
	Name      string     `json:"name,omitempty"`
	MediaInfo *MediaInfo `json:"mediaInfo,omitempty"`
}

// DisplayTitle returns the movie title, falling back to the TV-style name.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// CrossRefID returns the IMDb id, preferring the nested media info.
func (r SearchResult) CrossRefID() string {
	if r.MediaInfo != nil && r.MediaInfo.ImdbID != nil && *r.MediaInfo.ImdbID != "" {
		return *r.MediaInfo.ImdbID
	}
	if r.ImdbID != nil {
		return *r.ImdbID
	}
	return ""
}

// ProviderID returns the TMDB id, falling back to the entity id.
func (r SearchResult) ProviderID() int {
	if r.TmdbID != nil && *r.TmdbID != 0 {
		return *r.TmdbID
	}
	return r.ID
}

// SearchResponse is the body of GET /api/v1/search.
type SearchResponse struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"totalPages"`
	TotalResults int            `json:"totalResults"`
	Results      []SearchResult `json:"results"`
}

// PageInfo describes a paginated list.
type PageInfo struct {
	Pages    int `json:"pages"`
	PageSize int `json:"pageSize"`
	Results  int `json:"results"`
	Page     int `json:"page"`
}

// MediaRequest is one existing request returned by GET /api/v1/request.
type MediaRequest struct {
	ID        int        `json:"id"`
	Status    StatusCode `json:"status"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Is4K      bool       `json:"is4k"`
	Type      string     `json:"type,omitempty"`
	Media     *MediaInfo `json:"media,omitempty"`
}

// RequestListResponse is the body of GET /api/v1/request.
type RequestListResponse struct {
	PageInfo PageInfo       `json:"pageInfo"`
	Results  []MediaRequest `json:"results"`
}

// MovieDetails is the subset of GET /api/v1/movie/{id} needed for the
// availability check.
type MovieDetails struct {
	ID          int        `json:"id"`
	ImdbID      string     `json:"imdbId,omitempty"`
	Title       string     `json:"title"`
	ReleaseDate string     `json:"releaseDate,omitempty"`
	MediaInfo   *MediaInfo `json:"mediaInfo,omitempty"`
}

// CreateRequestPayload is the body of POST /api/v1/request.
type CreateRequestPayload struct {
	MediaType string `json:"mediaType"`
	MediaID   int    `json:"mediaId"`
	TmdbID    int    `json:"tmdbId,omitempty"`
	Is4K      bool   `json:"is4k"`
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Version         string `json:"version"`
	CommitTag       string `json:"commitTag,omitempty"`
	UpdateAvailable bool   `json:"updateAvailable"`
}
