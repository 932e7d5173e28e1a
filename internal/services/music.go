// Remote music service [Service] implementation
//
// Login uses the OAuth2 resource owner password grant; the resulting client refreshes its token automatically.
// Library songs are paged with an opaque page token and ratings are written back in paced batches.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	songsPath   = "/api/library/songs"
	ratingsPath = "/api/library/songs/ratings"

	defaultUpdateBatchSize = 250
)

// RemoteSong is a song as returned by the music service.
type RemoteSong struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Album           string `json:"album"`
	AlbumArtist     string `json:"albumArtist"`
	Artist          string `json:"artist"`
	Composer        string `json:"composer"`
	Genre           string `json:"genre"`
	TrackNumber     int    `json:"trackNumber"`
	TotalTrackCount int    `json:"totalTrackCount"`
	DiscNumber      int    `json:"discNumber"`
	TotalDiscCount  int    `json:"totalDiscCount"`
	Year            int    `json:"year"`
	PlayCount       int    `json:"playCount"`
	Rating          int    `json:"rating"`
}

// Song converts the service representation to a record.
func (r RemoteSong) Song() models.Song {
	s := models.NewSong()
	s.ID = r.ID
	s.Name = r.Title
	s.Album = r.Album
	s.AlbumArtist = r.AlbumArtist
	s.Artist = r.Artist
	s.Composer = r.Composer
	s.Genre = r.Genre
	s.Track = r.TrackNumber
	s.TotalTracks = r.TotalTrackCount
	s.Disc = r.DiscNumber
	s.TotalDiscs = r.TotalDiscCount
	s.Year = r.Year
	s.PlayCount = r.PlayCount
	s.Rating = r.Rating
	return s
}

type songsPage struct {
	Songs         []RemoteSong `json:"songs"`
	NextPageToken string       `json:"next_page_token"`
}

// RatingChange is one entry of a ratings write request.
type RatingChange struct {
	ID     string `json:"id"`
	Rating int    `json:"rating"`
}

type ratingsRequest struct {
	Ratings []RatingChange `json:"ratings"`
}

// MusicServiceOpts configures a [MusicService].
type MusicServiceOpts struct {
	BaseURL           string
	TokenURL          string
	ClientID          string
	UpdateBatchSize   int          // Songs per ratings request, defaults to 250
	RequestsPerSecond float64      // Write pacing; zero or less disables it
	HTTPClient        *http.Client // Base client for login and requests
}

// MusicService implements [Service] over the music service's JSON API.
type MusicService struct {
	api       *APIService
	oauth     *oauth2.Config
	base      *http.Client
	limiter   *rate.Limiter
	batchSize int
	loggedIn  bool
}

// NewMusicService creates a client; call [MusicService.Login] before anything else.
func NewMusicService(opts MusicServiceOpts) *MusicService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.UpdateBatchSize <= 0 {
		opts.UpdateBatchSize = defaultUpdateBatchSize
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &MusicService{
		api: NewAPIService(opts.BaseURL, opts.HTTPClient),
		oauth: &oauth2.Config{
			ClientID: opts.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		base:      opts.HTTPClient,
		limiter:   rate.NewLimiter(limit, 1),
		batchSize: opts.UpdateBatchSize,
	}
}

// Name returns the service name.
func (m *MusicService) Name() string {
	return "Music Service"
}

// Login exchanges the operator's credentials for a token and switches to an authenticated client.
func (m *MusicService) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}

	// The token source outlives this call, so it must not inherit ctx's cancellation.
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, m.base)

	token, err := m.oauth.PasswordCredentialsToken(tokenCtx, email, password)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	m.api.SetHTTPClient(m.oauth.Client(tokenCtx, token))
	m.loggedIn = true
	return nil
}

// FetchSongs pages through the library until the service stops returning a page token.
//
// Calls GET /api/library/songs?page_token={token}.
func (m *MusicService) FetchSongs(ctx context.Context, progress PageFunc) ([]models.Song, error) {
	if !m.loggedIn {
		return nil, shared.ErrNotAuthenticated
	}

	var songs []models.Song
	pageToken := ""
	for {
		path := songsPath
		if pageToken != "" {
			path += "?page_token=" + url.QueryEscape(pageToken)
		}

		resp, err := m.api.Get(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if err := checkStatus(resp); err != nil {
			return nil, err
		}

		var page songsPage
		if err := resp.Decode(&page); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		for _, rs := range page.Songs {
			songs = append(songs, rs.Song())
		}
		if progress != nil {
			progress(len(songs))
		}

		if page.NextPageToken == "" || page.NextPageToken == pageToken {
			return songs, nil
		}
		pageToken = page.NextPageToken
	}
}

// ChangeRatings writes ratings in batches, waiting on the rate limiter before each request.
// Every song must carry a service ID; nothing is sent otherwise.
//
// Calls POST /api/library/songs/ratings with {"ratings": [{"id": ..., "rating": ...}]}.
func (m *MusicService) ChangeRatings(ctx context.Context, songs []models.Song) error {
	if !m.loggedIn {
		return shared.ErrNotAuthenticated
	}

	for _, s := range songs {
		if s.ID == "" {
			return fmt.Errorf("%w: song %q has no service ID", shared.ErrInvalidInput, s.Name)
		}
	}

	for start := 0; start < len(songs); start += m.batchSize {
		end := min(start+m.batchSize, len(songs))

		req := ratingsRequest{Ratings: make([]RatingChange, 0, end-start)}
		for _, s := range songs[start:end] {
			req.Ratings = append(req.Ratings, RatingChange{ID: s.ID, Rating: s.Rating})
		}

		body, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal ratings request: %w", err)
		}

		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := m.api.Post(ctx, ratingsPath, body)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if err := checkStatus(resp); err != nil {
			return fmt.Errorf("ratings batch %d-%d: %w", start, end, err)
		}
	}

	return nil
}

func checkStatus(resp *APIResponse) error {
	if resp.OK() {
		return nil
	}

	var err error = shared.ErrAPIRequest
	if resp.StatusCode == http.StatusUnauthorized {
		err = shared.ErrNotAuthenticated
	}

	if detail := resp.Detail(); detail != "" {
		return fmt.Errorf("%w: status %d: %s", err, resp.StatusCode, detail)
	}
	return fmt.Errorf("%w: status %d", err, resp.StatusCode)
}
