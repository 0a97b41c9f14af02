package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gighall/calsync/pkg/domain/model"
	"github.com/gighall/calsync/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"

	requestTimeout = 10 * time.Second
	retryWait      = 200 * time.Millisecond
)

// delegatedScopes are requested in the authorization-code flow. offline_access
// is required for the refresh token.
var delegatedScopes = []string{
	"openid", "profile", "email", "offline_access",
	"Calendars.ReadWrite", "User.Read", "Group.Read.All",
}

// client implements Service interface
type client struct {
	baseURL    string
	oauth      *oauth2.Config
	appTokens  *AppTokenSource
	httpClient *http.Client
}

// Option configures the Graph client
type Option func(*client)

// WithBaseURL overrides the Graph API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithEndpoint overrides the OAuth2 endpoint
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(c *client) {
		c.oauth.Endpoint = endpoint
	}
}

// WithHTTPClient overrides the HTTP client used for Graph requests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// New creates a Graph API client for the given app registration. tenantID
// may be "common" for multi-tenant registrations.
func New(clientID, clientSecret, tenantID, redirectURI string, appTokens *AppTokenSource, opts ...Option) (Service, error) {
	if clientID == "" || clientSecret == "" {
		return nil, goerr.New("Microsoft client credentials are required")
	}
	if tenantID == "" {
		tenantID = "common"
	}

	c := &client{
		baseURL: defaultBaseURL,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     microsoft.AzureADEndpoint(tenantID),
			Scopes:       delegatedScopes,
		},
		appTokens:  appTokens,
		httpClient: &http.Client{Timeout: requestTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// do issues a Graph request and retries once after a short wait when the
// failure looks transient (connection error, 429 or 5xx).
func (c *client) do(ctx context.Context, token, method, rawURL string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode request body")
		}
	}

	send := func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", rawURL))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		return c.httpClient.Do(req)
	}

	resp, err := send()
	if err == nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
		return resp, nil
	}

	if resp != nil {
		safe.Close(ctx, resp.Body)
	}

	select {
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "request cancelled", goerr.V("url", rawURL))
	case <-time.After(retryWait):
	}

	resp, err = send()
	if err != nil {
		return nil, goerr.Wrap(ErrTransient, "request failed", goerr.V("url", rawURL), goerr.V("cause", err.Error()))
	}
	return resp, nil
}

// statusError maps a non-2xx response to the error taxonomy. The response
// body is drained into the error values for logging, never for clients.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	values := []goerr.Option{
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(body)),
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return goerr.Wrap(ErrUnauthorized, "graph rejected credentials", values...)
	case resp.StatusCode == http.StatusNotFound:
		return goerr.Wrap(ErrNotFound, "graph resource missing", values...)
	case resp.StatusCode == http.StatusTooManyRequests:
		return goerr.Wrap(ErrRateLimited, "graph throttled request", values...)
	case resp.StatusCode >= 500:
		return goerr.Wrap(ErrTransient, "graph server error", values...)
	default:
		return goerr.New("graph request failed", values...)
	}
}

func decodeJSON(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode graph response")
	}
	return nil
}

// eventsURL maps the calendar ID to the collection endpoint. The primary
// sentinel uses the default calendar path, everything else the named path.
func (c *client) eventsURL(calendarID string) string {
	if calendarID == model.PrimaryCalendarID {
		return c.baseURL + "/me/calendar/events"
	}
	return c.baseURL + "/me/calendars/" + url.PathEscape(calendarID) + "/events"
}

func (c *client) eventURL(calendarID, remoteEventID string) string {
	return c.eventsURL(calendarID) + "/" + url.PathEscape(remoteEventID)
}

func (c *client) ListCalendars(ctx context.Context, accessToken string) ([]*Calendar, error) {
	resp, err := c.do(ctx, accessToken, http.MethodGet, c.baseURL+"/me/calendars", nil)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result struct {
		Value []*Calendar `json:"value"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.Value, nil
}

func (c *client) CreateEvent(ctx context.Context, accessToken, calendarID string, payload *EventPayload) (*RemoteEvent, error) {
	resp, err := c.do(ctx, accessToken, http.MethodPost, c.eventsURL(calendarID), payload)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	return decodeRemoteEvent(resp)
}

func (c *client) UpdateEvent(ctx context.Context, accessToken, calendarID, remoteEventID string, payload *EventPayload) (*RemoteEvent, error) {
	resp, err := c.do(ctx, accessToken, http.MethodPatch, c.eventURL(calendarID, remoteEventID), payload)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	return decodeRemoteEvent(resp)
}

// DeleteEvent removes the remote event. A 404 means the event is already
// gone and counts as success.
func (c *client) DeleteEvent(ctx context.Context, accessToken, calendarID, remoteEventID string) error {
	resp, err := c.do(ctx, accessToken, http.MethodDelete, c.eventURL(calendarID, remoteEventID), nil)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound {
		return nil
	}

	return statusError(resp)
}

// decodeRemoteEvent extracts the remote identity from an event response.
// A response without an ID is treated as a failure so that no mapping is
// stored for an event that may not exist.
func decodeRemoteEvent(resp *http.Response) (*RemoteEvent, error) {
	var result struct {
		ID        string `json:"id"`
		ETag      string `json:"@odata.etag"`
		ChangeKey string `json:"changeKey"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		return nil, goerr.New("graph event response missing id")
	}

	changeKey := result.ETag
	if changeKey == "" {
		changeKey = result.ChangeKey
	}

	return &RemoteEvent{ID: result.ID, ChangeKey: changeKey}, nil
}

func (c *client) ListGroups(ctx context.Context, accessToken string) ([]*Group, error) {
	query := url.Values{
		"$select":  {"id,displayName,mail,description,createdDateTime,renewedDateTime,groupTypes"},
		"$filter":  {"mailEnabled eq true and securityEnabled eq false"},
		"$orderby": {"displayName"},
	}

	resp, err := c.do(ctx, accessToken, http.MethodGet, c.baseURL+"/groups?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result struct {
		Value []*Group `json:"value"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	for _, group := range result.Value {
		count, err := c.groupMemberCount(ctx, accessToken, group.ID)
		if err != nil {
			// Member count is informational, a miss does not fail the list
			continue
		}
		group.MemberCount = count
	}

	return result.Value, nil
}

func (c *client) groupMemberCount(ctx context.Context, accessToken, groupID string) (int, error) {
	rawURL := c.baseURL + "/groups/" + url.PathEscape(groupID) + "/members/$count"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to create request", goerr.V("url", rawURL))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("ConsistencyLevel", "eventual")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count group members", goerr.V("groupID", groupID))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read member count")
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, goerr.Wrap(err, "unexpected member count body", goerr.V("body", string(body)))
	}
	return count, nil
}

func (c *client) GetGroup(ctx context.Context, accessToken, groupID string) (*Group, error) {
	resp, err := c.do(ctx, accessToken, http.MethodGet, c.baseURL+"/groups/"+url.PathEscape(groupID), nil)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var group Group
	if err := decodeJSON(resp, &group); err != nil {
		return nil, err
	}
	if group.ID == "" {
		return nil, goerr.New("graph group response missing id", goerr.V("groupID", groupID))
	}

	return &group, nil
}

func (c *client) GetGroupMembers(ctx context.Context, accessToken, groupID string) ([]*GroupMember, error) {
	resp, err := c.do(ctx, accessToken, http.MethodGet, c.baseURL+"/groups/"+url.PathEscape(groupID)+"/members", nil)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result struct {
		Value []*GroupMember `json:"value"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.Value, nil
}

func (c *client) AppToken(ctx context.Context) (string, error) {
	if c.appTokens == nil {
		return "", goerr.New("app token source is not configured")
	}
	return c.appTokens.Token(ctx)
}

func (c *client) GetRoomCalendar(ctx context.Context, appToken, roomEmail string) (*RoomCalendar, error) {
	rawURL := c.baseURL + "/users/" + url.PathEscape(roomEmail) + "/calendar"

	resp, err := c.do(ctx, appToken, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	name := result.Name
	if name == "" {
		name = roomEmail
	}

	return &RoomCalendar{ID: result.ID, Name: name, Email: roomEmail}, nil
}

const roomTimeFormat = "2006-01-02T15:04:05Z"

func (c *client) GetRoomEvents(ctx context.Context, appToken, roomEmail string, start, end time.Time) ([]*RoomEvent, error) {
	query := url.Values{
		"startDateTime": {start.UTC().Format(roomTimeFormat)},
		"endDateTime":   {end.UTC().Format(roomTimeFormat)},
		"$orderby":      {"start/dateTime"},
	}
	rawURL := fmt.Sprintf("%s/users/%s/calendar/calendarView?%s", c.baseURL, url.PathEscape(roomEmail), query.Encode())

	resp, err := c.do(ctx, appToken, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result struct {
		Value []*RoomEvent `json:"value"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	return result.Value, nil
}
