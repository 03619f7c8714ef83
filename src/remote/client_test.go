package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/mission-agent/src/webclient"
)

type fakeAPI struct {
	mu       sync.Mutex
	accepted []string
	solved   []string
	tokens   []string
	auth     []string
}

func newFakeAPI(t *testing.T, setup func(r *gin.Engine, api *fakeAPI)) (*Client, *fakeAPI) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := &fakeAPI{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		api.mu.Lock()
		api.auth = append(api.auth, c.GetHeader("Authorization"))
		api.mu.Unlock()
		c.Next()
	})
	setup(r, api)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClient(webclient.New(srv.URL+"/api", "secret-token", nil), nil), api
}

func TestClientHappyPath(t *testing.T) {
	client, api := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {
		r.GET("/api/character", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"energy": 5, "level": 2, "activeMission": nil})
		})
		r.GET("/api/missions", func(c *gin.Context) {
			c.JSON(http.StatusOK, []gin.H{
				{"id": 1, "difficulty": "easy", "puzzle": gin.H{"id": "p1", "type": "add_even_numbers", "payload": []int{1, 2}}},
				{"id": 2, "difficulty": "hard", "puzzle": gin.H{"id": "p2", "type": "decrypt_cipher", "payload": gin.H{"encrypted_message": "ghkku", "shift_key": 3}}},
			})
		})
		r.POST("/api/missions/:id/accept", func(c *gin.Context) {
			api.mu.Lock()
			api.accepted = append(api.accepted, c.Param("id"))
			api.mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "difficulty": "hard"})
		})
		r.POST("/api/missions/solve", func(c *gin.Context) {
			raw, _ := io.ReadAll(c.Request.Body)
			api.mu.Lock()
			api.solved = append(api.solved, string(raw))
			api.mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"reward": gin.H{"victoryToken": "vt-1"}})
		})
		r.POST("/api/character/levelup", func(c *gin.Context) {
			var body struct {
				VictoryToken string `json:"victoryToken"`
			}
			_ = c.BindJSON(&body)
			api.mu.Lock()
			api.tokens = append(api.tokens, body.VictoryToken)
			api.mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"energy": 4, "level": 3})
		})
	})
	ctx := context.Background()

	char := client.GetCharacter(ctx)
	require.True(t, char.OK, char.String())
	assert.Equal(t, 200, char.Status)
	assert.Equal(t, 5, char.Data.Energy)
	assert.Nil(t, char.Data.ActiveMission)

	list := client.GetMissionList(ctx)
	require.True(t, list.OK)
	require.Len(t, list.Data, 2)
	assert.Equal(t, ID("1"), list.Data[0].ID)
	assert.Equal(t, "decrypt_cipher", list.Data[1].Puzzle.Type)
	assert.False(t, list.Data[1].HasSolution())

	accepted := client.SelectMission(ctx, list.Data, "hard")
	require.True(t, accepted.OK)
	assert.Equal(t, ID("2"), accepted.Data.ID)

	solved := client.SolveMission(ctx, "dehhr")
	require.True(t, solved.OK)
	token, ok := solved.Data.VictoryToken()
	require.True(t, ok)
	assert.Equal(t, "vt-1", token)

	leveled := client.LevelUp(ctx, token)
	require.True(t, leveled.OK)
	assert.Equal(t, 3, leveled.Data.Level)

	assert.Equal(t, []string{"2"}, api.accepted)
	require.Len(t, api.solved, 1)
	assert.JSONEq(t, `{"solution":"dehhr"}`, api.solved[0])
	assert.Equal(t, []string{"vt-1"}, api.tokens)
	for _, h := range api.auth {
		assert.Equal(t, "Bearer secret-token", h)
	}
}

func TestSelectMissionPicksFirstMatch(t *testing.T) {
	client, api := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {
		r.POST("/api/missions/:id/accept", func(c *gin.Context) {
			api.mu.Lock()
			api.accepted = append(api.accepted, c.Param("id"))
			api.mu.Unlock()
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
		})
	})
	missions := []Mission{
		{ID: "1", Difficulty: "easy"},
		{ID: "2", Difficulty: "hard"},
		{ID: "3", Difficulty: "hard"},
	}

	res := client.SelectMission(context.Background(), missions, "hard")
	require.True(t, res.OK)
	assert.Equal(t, []string{"2"}, api.accepted)
}

func TestSelectMissionNoMatch(t *testing.T) {
	client, api := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {})

	res := client.SelectMission(context.Background(), []Mission{{ID: "1", Difficulty: "easy"}}, "hard")
	assert.False(t, res.OK)
	assert.Equal(t, StatusUnknown, res.Status)
	assert.Equal(t, NoPreferredMissionMsg, res.Err)
	assert.Empty(t, api.auth)

	res = client.SelectMission(context.Background(), nil, "hard")
	assert.False(t, res.OK)
}

func TestAcceptConflictIsSoftFailure(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {
		r.POST("/api/missions/:id/accept", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{"message": "Mission already accepted"})
		})
	})

	res := client.AcceptMission(context.Background(), "9")
	assert.False(t, res.OK)
	assert.True(t, res.Conflict())
	assert.False(t, res.RateLimited())
	assert.Equal(t, "HTTP error! status: 409: Mission already accepted", res.Err)
	assert.Equal(t, "missions/9/accept", res.Endpoint)
}

func TestRateLimitMessageCarriesServerHint(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {
		r.GET("/api/missions", func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again in 120 seconds"})
		})
		r.GET("/api/character", func(c *gin.Context) {
			c.Header("Retry-After", "45")
			c.Status(http.StatusTooManyRequests)
		})
	})

	list := client.GetMissionList(context.Background())
	assert.True(t, list.RateLimited())
	assert.Contains(t, list.Err, "120 seconds")

	char := client.GetCharacter(context.Background())
	assert.True(t, char.RateLimited())
	assert.Equal(t, "HTTP error! status: 429: retry after 45 seconds", char.Err)
}

func TestMalformedJSONBecomesFailure(t *testing.T) {
	client, _ := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {
		r.GET("/api/character", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", []byte(`{"energy":`))
		})
	})

	res := client.GetCharacter(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.True(t, strings.HasPrefix(res.Err, "parse response"))
}

func TestTransportFailureHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	client := NewClient(webclient.New(base, "secret-token", nil), nil)

	res := client.GetCharacter(context.Background())
	assert.False(t, res.OK)
	assert.Equal(t, StatusUnknown, res.Status)
	assert.NotContains(t, res.Err, "secret-token")
}

type errTransport struct{ err error }

func (e errTransport) Get(context.Context, string) (int, []byte, error) { return 0, nil, e.err }
func (e errTransport) Post(context.Context, string, any) (int, []byte, error) {
	return 0, nil, e.err
}

func TestThrottledTransportErrorIsRateLimited(t *testing.T) {
	client := NewClient(errTransport{err: errors.New("proxy: rate limit exceeded")}, nil)

	res := client.GetMissionList(context.Background())
	assert.False(t, res.OK)
	assert.True(t, res.RateLimited())
	assert.Equal(t, http.StatusTooManyRequests, res.Status)

	res2 := NewClient(errTransport{err: errors.New("connection reset by peer")}, nil).GetCharacter(context.Background())
	assert.Equal(t, StatusUnknown, res2.Status)
	assert.False(t, res2.RateLimited())
}

// Every operation must return exactly one of Data or Err.
func TestEnvelopeShapeAcrossOperations(t *testing.T) {
	okClient, _ := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {
		r.GET("/api/character", func(c *gin.Context) { c.JSON(200, gin.H{"energy": 1}) })
		r.GET("/api/missions", func(c *gin.Context) { c.JSON(200, []gin.H{{"id": 1, "difficulty": "hard"}}) })
		r.POST("/api/missions/:id/accept", func(c *gin.Context) { c.JSON(200, gin.H{"id": 1}) })
		r.POST("/api/missions/solve", func(c *gin.Context) { c.JSON(200, gin.H{"reward": gin.H{"victoryToken": "x"}}) })
		r.POST("/api/character/levelup", func(c *gin.Context) { c.JSON(200, gin.H{"energy": 1}) })
	})
	failClient, _ := newFakeAPI(t, func(r *gin.Engine, api *fakeAPI) {
		r.NoRoute(func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{}) })
	})
	ctx := context.Background()
	missions := []Mission{{ID: "1", Difficulty: "hard"}}

	type shape struct {
		ok      bool
		err     string
		hasData bool
	}
	run := func(c *Client) []shape {
		char := c.GetCharacter(ctx)
		list := c.GetMissionList(ctx)
		acc := c.AcceptMission(ctx, "1")
		solve := c.SolveMission(ctx, 1)
		lvl := c.LevelUp(ctx, "x")
		sel := c.SelectMission(ctx, missions, "hard")
		return []shape{
			{char.OK, char.Err, char.Data != (Character{})},
			{list.OK, list.Err, list.Data != nil},
			{acc.OK, acc.Err, acc.Data.ID != ""},
			{solve.OK, solve.Err, solve.Data.Reward != nil},
			{lvl.OK, lvl.Err, lvl.Data != (Character{})},
			{sel.OK, sel.Err, sel.Data.ID != ""},
		}
	}

	for i, s := range run(okClient) {
		assert.True(t, s.ok, "op %d", i)
		assert.Empty(t, s.err, "op %d", i)
		assert.True(t, s.hasData, "op %d", i)
	}
	for i, s := range run(failClient) {
		assert.False(t, s.ok, "op %d", i)
		assert.NotEmpty(t, s.err, "op %d", i)
		assert.False(t, s.hasData, "op %d", i)
	}
}

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var m struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"m-7","c":null}`), &m))
	assert.Equal(t, ID("42"), m.A)
	assert.Equal(t, ID("m-7"), m.B)
	assert.Equal(t, ID(""), m.C)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":42,"b":"m-7","c":""}`, string(out))

	for id, want := range map[ID]string{"007": `"007"`, "+5": `"+5"`, "-3": `-3`, "0": `0`} {
		out, err := json.Marshal(id)
		require.NoError(t, err, "%s", id)
		assert.Equal(t, want, string(out))
	}
}

func TestMissionHasSolution(t *testing.T) {
	var m Mission
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"solution":null}`), &m))
	assert.False(t, m.HasSolution())
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"solution":"abc"}`), &m))
	assert.True(t, m.HasSolution())
	var nilMission *Mission
	assert.False(t, nilMission.HasSolution())
}
