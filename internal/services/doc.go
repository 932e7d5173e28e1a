// Package services defines the [Service] interface for the remote music catalog and implements it for a JSON
// music service API.
//
// # Service Interface
//
// The sync pipeline only needs three calls: log in, fetch every library song, and write ratings back.
//
// # Music Service Implementation
//
// [MusicService] logs in with the OAuth2 resource owner password grant ([oauth2.Config.PasswordCredentialsToken]).
// The [oauth2.Client] returned afterwards attaches the bearer token and refreshes it when it expires.
//
// Songs are fetched page by page from GET /api/library/songs, following next_page_token until it is empty.
// Ratings are written to POST /api/library/songs/ratings in batches, paced with a [rate.Limiter].
//
// # Transport
//
// [APIService] is the raw JSON transport underneath; it keeps status, headers and body for inspection.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAuthFailed] : login rejected
//   - [shared.ErrNotAuthenticated] : Login() not called, or the service answered 401
//   - [shared.ErrAPIRequest] : HTTP request failed or returned a non-2xx status
package services
