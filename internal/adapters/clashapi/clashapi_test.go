package clashapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/decktube/internal/adapters/clashapi"
	"github.com/okian/decktube/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

const officialCards = `{"items":[
  {"id":26000000,"name":"Knight","elixirCost":3,"rarity":"Common","maxLevel":14,"iconUrls":{"medium":"k.png","evolutionMedium":"k-evo.png"}},
  {"id":26000021,"name":"Hog Rider","elixirCost":4,"rarity":"Rare","maxLevel":12,"iconUrls":{"medium":"h.png"}},
  {"id":0,"name":"broken"}
]}`

const player = `{
  "tag":"#PY2QJ9R","name":"tester","trophies":7000,"bestTrophies":7500,"wins":10,"losses":4,
  "clan":{"name":"Clanners"},
  "currentDeck":[
    {"id":26000000,"name":"Knight","elixirCost":3,"iconUrls":{"medium":"k.png"}},
    {"id":26000021,"name":"Hog Rider","elixirCost":4,"rarity":"rare","iconUrls":{"medium":"h.png"}}
  ]
}`

func TestFetchCards(t *testing.T) {
	Convey("Given an official API and a fallback", t, func() {
		officialStatus := http.StatusOK
		var auth string
		official := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.WriteHeader(officialStatus)
			_, _ = fmt.Fprint(w, officialCards)
		}))
		defer official.Close()

		fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `[{"id":28000000,"name":"Fireball","elixirCost":4,"rarity":"rare"}]`)
		}))
		defer fallback.Close()

		c := clashapi.New(
			clashapi.WithAPIKey("secret"),
			clashapi.WithBaseURL(official.URL),
			clashapi.WithFallbackURL(fallback.URL),
		)

		Convey("When the official API answers", func() {
			cards, err := c.FetchCards(context.Background())

			Convey("Then normalized cards are returned with the bearer token sent", func() {
				So(err, ShouldBeNil)
				So(auth, ShouldEqual, "Bearer secret")
				So(cards, ShouldHaveLength, 2)
				So(cards[0].Rarity, ShouldEqual, "common")
				So(cards[0].EvolutionIconURL, ShouldEqual, "k-evo.png")
				So(cards[1].IconURL, ShouldEqual, "h.png")
			})
		})

		Convey("When the official API fails", func() {
			officialStatus = http.StatusServiceUnavailable
			cards, err := c.FetchCards(context.Background())

			Convey("Then the fallback list is used", func() {
				So(err, ShouldBeNil)
				So(cards, ShouldHaveLength, 1)
				So(cards[0].Name, ShouldEqual, "Fireball")
			})
		})

		Convey("When both sources fail", func() {
			officialStatus = http.StatusServiceUnavailable
			noFallback := clashapi.New(clashapi.WithBaseURL(official.URL), clashapi.WithFallbackURL(""))
			_, err := noFallback.FetchCards(context.Background())
			So(errors.Is(err, clashapi.ErrNoCards), ShouldBeTrue)
		})
	})
}

func TestPlayer(t *testing.T) {
	Convey("Given a player endpoint", t, func() {
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			if r.URL.Path != "/players/#PY2QJ9R" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = fmt.Fprint(w, player)
		}))
		defer srv.Close()
		c := clashapi.New(clashapi.WithBaseURL(srv.URL))

		Convey("When the tag is known", func() {
			p, err := c.Player(context.Background(), "#py2qj9r")

			Convey("Then the profile and current deck are returned", func() {
				So(err, ShouldBeNil)
				So(path, ShouldEqual, "/players/#PY2QJ9R")
				So(p.Name, ShouldEqual, "tester")
				So(p.Clan, ShouldEqual, "Clanners")
				So(p.CurrentDeck.Cards, ShouldHaveLength, 2)
				So(p.CurrentDeck.Cards[0].Rarity, ShouldEqual, "common")
				So(p.CurrentDeck.AverageElixir, ShouldEqual, 3.5)
			})
		})

		Convey("When the tag is unknown", func() {
			_, err := c.Player(context.Background(), "ABC123")
			So(errors.Is(err, clashapi.ErrPlayerNotFound), ShouldBeTrue)
		})

		Convey("When the tag is malformed", func() {
			_, err := c.Player(context.Background(), "#!!")
			So(errors.Is(err, clashapi.ErrInvalidTag), ShouldBeTrue)
		})
	})
}
