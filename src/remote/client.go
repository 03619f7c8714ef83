package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stake-plus/mission-agent/src/logging"
	"github.com/stake-plus/mission-agent/src/webclient"
)

const (
	endpointCharacter = "character"
	endpointMissions  = "missions"
	endpointSolve     = "missions/solve"
	endpointLevelUp   = "character/levelup"
)

// NoPreferredMissionMsg is the failure text when no mission matches the
// preferred difficulty.
const NoPreferredMissionMsg = "No preferred difficulty missions available"

// Transport performs authenticated JSON calls. *webclient.Client satisfies it.
type Transport interface {
	Get(ctx context.Context, endpoint string) (int, []byte, error)
	Post(ctx context.Context, endpoint string, payload any) (int, []byte, error)
}

// Client wraps the mission API. It holds no state beyond its transport and
// never returns errors: every outcome is a Result.
type Client struct {
	transport Transport
	logger    *log.Logger
}

// NewClient builds a client over transport. A nil logger discards output.
func NewClient(transport Transport, logger *log.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{transport: transport, logger: logger}
}

// GetCharacter fetches the current character snapshot.
func (c *Client) GetCharacter(ctx context.Context) Result[Character] {
	return fetch[Character](ctx, c, endpointCharacter)
}

// GetMissionList fetches the missions currently on offer, in server order.
func (c *Client) GetMissionList(ctx context.Context) Result[[]Mission] {
	return fetch[[]Mission](ctx, c, endpointMissions)
}

// AcceptMission accepts a mission by id. A 409 means the mission is already
// accepted or no longer available.
func (c *Client) AcceptMission(ctx context.Context, id ID) Result[Mission] {
	endpoint := fmt.Sprintf("missions/%s/accept", url.PathEscape(id.String()))
	return send[Mission](ctx, c, endpoint, struct{}{})
}

// SolveMission submits a solution. Raw JSON solutions are sent unchanged.
func (c *Client) SolveMission(ctx context.Context, solution any) Result[SolveResponse] {
	return send[SolveResponse](ctx, c, endpointSolve, map[string]any{"solution": solution})
}

// LevelUp spends a victory token.
func (c *Client) LevelUp(ctx context.Context, victoryToken string) Result[Character] {
	return send[Character](ctx, c, endpointLevelUp, map[string]string{"victoryToken": victoryToken})
}

// SelectMission accepts the first mission, in list order, whose difficulty
// equals preferred.
func (c *Client) SelectMission(ctx context.Context, missions []Mission, preferred string) Result[Mission] {
	for _, m := range missions {
		if m.Difficulty == preferred {
			return c.AcceptMission(ctx, m.ID)
		}
	}
	return Failure[Mission]("missions/select", StatusUnknown, NoPreferredMissionMsg)
}

func fetch[T any](ctx context.Context, c *Client, endpoint string) Result[T] {
	status, body, err := c.transport.Get(ctx, endpoint)
	return decode[T](c, endpoint, status, body, err)
}

func send[T any](ctx context.Context, c *Client, endpoint string, payload any) Result[T] {
	status, body, err := c.transport.Post(ctx, endpoint, payload)
	return decode[T](c, endpoint, status, body, err)
}

func decode[T any](c *Client, endpoint string, status int, body []byte, err error) Result[T] {
	if err != nil {
		var httpErr *webclient.HTTPError
		if errors.As(err, &httpErr) {
			return Failure[T](endpoint, httpErr.StatusCode, failureMessage(httpErr))
		}
		c.logger.Printf("%s: transport error: %v", endpoint, err)
		if status == StatusUnknown && logging.IsRateLimit(err) {
			// proxies and gateways sometimes report throttling without a response
			status = http.StatusTooManyRequests
		}
		return Failure[T](endpoint, status, err.Error())
	}

	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Printf("%s: invalid response body: %v", endpoint, err)
		return Failure[T](endpoint, status, fmt.Sprintf("parse response: %v", err))
	}
	return Success(endpoint, status, data)
}

// failureMessage keeps the generic status line and appends whatever the
// server said, so callers can read hints such as a cooldown in seconds.
func failureMessage(httpErr *webclient.HTTPError) string {
	msg := fmt.Sprintf("HTTP error! status: %d", httpErr.StatusCode)
	if detail := httpErr.Message(); detail != "" {
		return msg + ": " + detail
	}
	if logging.IsRateLimitStatus(httpErr.StatusCode) {
		if secs, err := strconv.Atoi(strings.TrimSpace(httpErr.RetryAfter)); err == nil && secs > 0 {
			return fmt.Sprintf("%s: retry after %d seconds", msg, secs)
		}
	}
	return msg
}
