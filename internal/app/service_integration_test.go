package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/decktube/internal/adapters/http/api"
	"github.com/okian/decktube/internal/adapters/http/swagger"
	service "github.com/okian/decktube/internal/app"
	"github.com/okian/decktube/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

const clashCards = `{"items":[
  {"id":26000021,"name":"Hog Rider","elixirCost":4,"rarity":"Rare","iconUrls":{"medium":"h.png"}},
  {"id":26000030,"name":"Ice Spirit","elixirCost":1,"rarity":"Common","iconUrls":{"medium":"is.png","evolutionMedium":"is-evo.png"}},
  {"id":26000010,"name":"Skeletons","elixirCost":1,"rarity":"Common","iconUrls":{"medium":"s.png","evolutionMedium":"s-evo.png"}},
  {"id":28000011,"name":"The Log","elixirCost":2,"rarity":"Legendary","iconUrls":{"medium":"l.png"}},
  {"id":28000000,"name":"Fireball","elixirCost":4,"rarity":"Rare","iconUrls":{"medium":"f.png"}},
  {"id":26000014,"name":"Musketeer","elixirCost":4,"rarity":"Rare","iconUrls":{"medium":"m.png"}},
  {"id":26000038,"name":"Ice Golem","elixirCost":2,"rarity":"Rare","iconUrls":{"medium":"ig.png"}},
  {"id":27000000,"name":"Cannon","elixirCost":3,"rarity":"Common","iconUrls":{"medium":"c.png"}}
]}`

const clashPlayer = `{"tag":"#2PP","name":"Alice","trophies":7400,"bestTrophies":7600,"wins":900,"losses":700,
  "clan":{"name":"Night Owls"},
  "currentDeck":[{"id":26000021,"name":"Hog Rider","elixirCost":4,"rarity":"rare"}]}`

const youtubeSearch = `{"items":[
  {"id":{"videoId":"vid1"},"snippet":{"publishedAt":"%s","channelTitle":"B-Rad Gaming",
    "title":"Clash Royale Hog Rider Cycle Deck Guide","description":"Ice Spirit, Skeletons, The Log, Fireball",
    "thumbnails":{"high":{"url":"https://img/1.jpg"}}}},
  {"id":{"videoId":"vid2"},"snippet":{"publishedAt":"2020-01-01T00:00:00Z","channelTitle":"Chef",
    "title":"Cooking with fire","description":"pasta night"}}
]}`

const vid1Captions = `<timedtext format="3"><body>` +
	`<p t="0" d="3000">today in clash royale we defend with musketeer</p>` +
	`<p t="3000" d="3000">then ice golem kites and cannon holds the bridge</p>` +
	`</body></timedtext>`

func fakeClash() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cards":
			_, _ = fmt.Fprint(w, clashCards)
		case r.URL.Path == "/challenges":
			_, _ = fmt.Fprint(w, `{"items":[{"title":"Classic Challenge"}]}`)
		case strings.HasSuffix(r.URL.Path, "#2PP"):
			_, _ = fmt.Fprint(w, clashPlayer)
		default:
			http.NotFound(w, r)
		}
	}))
}

func fakeYouTube() *httptest.Server {
	published := time.Now().AddDate(0, -1, 0).UTC().Format(time.RFC3339)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = fmt.Fprintf(w, youtubeSearch, published)
		case "/videos":
			_, _ = fmt.Fprint(w, `{"items":[{"id":"vid1","contentDetails":{"duration":"PT8M5S"}}]}`)
		case "/timedtext":
			if r.URL.Query().Get("v") == "vid1" && r.URL.Query().Get("lang") == "en" {
				_, _ = fmt.Fprint(w, vid1Captions)
				return
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
}

func integrationConfig(t *testing.T, yt, clash *httptest.Server) *config.Config {
	cfg := config.New()
	cfg.YouTube.APIKey = "yt-key"
	cfg.YouTube.BaseURL = yt.URL
	cfg.YouTube.TimedTextURL = yt.URL + "/timedtext"
	cfg.YouTube.RequestsPerSecond = 1000
	cfg.YouTube.TranscriptBatchDelay = time.Millisecond
	cfg.Clash.APIKey = "clash-key"
	cfg.Clash.BaseURL = clash.URL
	cfg.Clash.FallbackURL = ""
	cfg.Storage.Path = filepath.Join(t.TempDir(), "decktube.db")
	return cfg
}

type client struct {
	base string
	user string
}

func (c client) call(method, path string, body any) (int, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, c.base+path, reader)
	if c.user != "" {
		req.Header.Set(api.UserIDHeader, c.user)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil
	}
	defer resp.Body.Close()
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func hogCycle() map[string]interface{} {
	ids := []int{26000021, 26000030, 26000010, 28000011, 28000000, 26000014, 26000038, 27000000}
	cards := make([]map[string]int, 0, len(ids))
	for _, id := range ids {
		cards = append(cards, map[string]int{"id": id})
	}
	return map[string]interface{}{"cards": cards}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired to fake upstreams and a temp database", t, func() {
		yt := fakeYouTube()
		defer yt.Close()
		clash := fakeClash()
		defer clash.Close()

		svc := service.New(service.WithConfig(integrationConfig(t, yt, clash)))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		swagger.Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()
		c := client{base: srv.URL, user: "user-1"}

		Convey("When the card catalog is requested", func() {
			status, body := c.call(http.MethodGet, "/api/cards", nil)

			Convey("Then base cards and two evolutions are returned", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body["count"], ShouldEqual, 10.0)
			})
		})

		Convey("When a player is looked up", func() {
			status, body := c.call(http.MethodGet, "/api/player?tag=%232pp", nil)

			Convey("Then the profile is returned", func() {
				So(status, ShouldEqual, http.StatusOK)
				player := body["player"].(map[string]interface{})
				So(player["name"], ShouldEqual, "Alice")
				So(player["clan"], ShouldEqual, "Night Owls")
			})

			Convey("Then unknown players are not found", func() {
				status, _ := c.call(http.MethodGet, "/api/player?tag=9QQ", nil)
				So(status, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the hog cycle deck is ranked", func() {
			status, body := c.call(http.MethodPost, "/api/videos/rank", hogCycle())

			Convey("Then only the video covering the deck is returned", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body["count"], ShouldEqual, 1.0)
				So(body["noMatch"], ShouldEqual, false)
				video := body["videos"].([]interface{})[0].(map[string]interface{})
				So(video["id"], ShouldEqual, "vid1")
				So(video["cardsMatched"], ShouldEqual, 8.0)
				So(video["matchedCards"], ShouldHaveLength, 8)
				So(video["duration"], ShouldEqual, "8:05")

				stats := body["stats"].(map[string]interface{})
				So(stats["candidates"], ShouldEqual, 2.0)
				So(stats["transcripts"], ShouldEqual, 1.0)
			})

			Convey("Then the service stats reflect the ranking", func() {
				_, stats := c.call(http.MethodGet, "/stats", nil)
				So(stats["rankings"], ShouldEqual, 1.0)
				last := stats["lastRanking"].(map[string]interface{})
				So(last["results"], ShouldEqual, 1.0)
			})

			Convey("Then the video can be saved once per user", func() {
				video := map[string]interface{}{"videoId": "vid1", "title": "Hog", "cardsMatched": 8, "score": 1300}
				first, _ := c.call(http.MethodPost, "/api/saved/videos", video)
				second, _ := c.call(http.MethodPost, "/api/saved/videos", video)
				So(first, ShouldEqual, http.StatusCreated)
				So(second, ShouldEqual, http.StatusConflict)

				_, list := c.call(http.MethodGet, "/api/saved/videos", nil)
				So(list["count"], ShouldEqual, 1.0)
			})
		})

		Convey("When the deck is analyzed and saved", func() {
			status, analysis := c.call(http.MethodPost, "/api/decks/analyze", hogCycle())
			So(status, ShouldEqual, http.StatusOK)
			So(analysis["archetype"], ShouldEqual, "Cycle")

			deck := hogCycle()
			deck["name"] = "Hog 2.6"
			status, saved := c.call(http.MethodPost, "/api/saved/decks", deck)

			Convey("Then it is listed and can be deleted", func() {
				So(status, ShouldEqual, http.StatusCreated)
				So(saved["name"], ShouldEqual, "Hog 2.6")

				_, list := c.call(http.MethodGet, "/api/saved/decks", nil)
				So(list["count"], ShouldEqual, 1.0)

				id := saved["id"].(string)
				other := client{base: srv.URL, user: "user-2"}
				status, _ := other.call(http.MethodDelete, "/api/saved/decks/"+id, nil)
				So(status, ShouldEqual, http.StatusNotFound)

				status, _ = c.call(http.MethodDelete, "/api/saved/decks/"+id, nil)
				So(status, ShouldEqual, http.StatusNoContent)
			})
		})

		Convey("When transcripts are requested in a batch", func() {
			status, body := c.call(http.MethodGet, "/api/youtube/transcript?videoIds=vid1,vid2", nil)

			Convey("Then only available captions are returned", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body["count"], ShouldEqual, 1.0)
				ts := body["transcripts"].(map[string]interface{})
				So(ts["vid1"], ShouldContainSubstring, "ice golem")
			})
		})

		Convey("When the caller saves a profile", func() {
			status, _ := c.call(http.MethodPut, "/api/profile", map[string]string{"fullName": "Alice", "email": "alice@example.com"})
			So(status, ShouldEqual, http.StatusOK)

			Convey("Then it is read back for that caller only", func() {
				_, got := c.call(http.MethodGet, "/api/profile", nil)
				So(got["fullName"], ShouldEqual, "Alice")
				So(got["isPremium"], ShouldEqual, false)

				other := client{base: srv.URL, user: "user-2"}
				status, _ := other.call(http.MethodGet, "/api/profile", nil)
				So(status, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the current challenges are requested", func() {
			status, body := c.call(http.MethodGet, "/api/challenges", nil)

			Convey("Then the official list is passed through", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(body["count"], ShouldEqual, 1.0)
			})
		})

		Convey("When the docs are requested", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
