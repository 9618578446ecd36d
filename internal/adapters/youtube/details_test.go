package youtube_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/decktube/internal/adapters/youtube"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseDuration(t *testing.T) {
	Convey("Given durations in the Data API format", t, func() {
		cases := map[string]time.Duration{
			"PT45S":     45 * time.Second,
			"PT8M5S":    8*time.Minute + 5*time.Second,
			"PT1H2M3S":  time.Hour + 2*time.Minute + 3*time.Second,
			"PT2H":      2 * time.Hour,
			"P1DT5M":    24*time.Hour + 5*time.Minute,
			"PT0S":      0,
			" PT10M ":   10 * time.Minute,
			"PT12M030S": 12*time.Minute + 30*time.Second,
		}

		Convey("Then each parses to its length", func() {
			for in, want := range cases {
				got, err := youtube.ParseDuration(in)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("Then malformed values are rejected", func() {
			for _, in := range []string{"", "P", "PT", "10:00", "PT5X", "live"} {
				_, err := youtube.ParseDuration(in)
				So(errors.Is(err, youtube.ErrBadDuration), ShouldBeTrue)
			}
		})
	})

	Convey("Given lengths to display", t, func() {
		So(youtube.FormatDuration(45*time.Second), ShouldEqual, "0:45")
		So(youtube.FormatDuration(8*time.Minute+5*time.Second), ShouldEqual, "8:05")
		So(youtube.FormatDuration(time.Hour+2*time.Minute+3*time.Second), ShouldEqual, "1:02:03")
	})
}

func TestDurations(t *testing.T) {
	Convey("Given a fake videos endpoint", t, func() {
		var calls []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/videos" || r.URL.Query().Get("part") != "contentDetails" {
				http.NotFound(w, r)
				return
			}
			ids := r.URL.Query().Get("id")
			calls = append(calls, ids)
			var items []string
			for _, id := range strings.Split(ids, ",") {
				switch id {
				case "broken":
					items = append(items, `{"id":"broken","contentDetails":{"duration":"soon"}}`)
				case "gone":
				default:
					items = append(items, fmt.Sprintf(`{"id":%q,"contentDetails":{"duration":"PT9M30S"}}`, id))
				}
			}
			_, _ = fmt.Fprintf(w, `{"items":[%s]}`, strings.Join(items, ","))
		}))
		defer srv.Close()

		c := youtube.New(
			youtube.WithAPIKey("k"),
			youtube.WithBaseURL(srv.URL),
			youtube.WithRateLimit(1000),
		)

		Convey("When a few ids are looked up", func() {
			got, err := c.Durations(context.Background(), []string{"a", "broken", "gone"})

			Convey("Then only parsable durations are returned", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got["a"], ShouldEqual, 9*time.Minute+30*time.Second)
				So(calls, ShouldResemble, []string{"a,broken,gone"})
			})
		})

		Convey("When more ids than one call takes are looked up", func() {
			ids := make([]string, 0, 60)
			for i := 0; i < 60; i++ {
				ids = append(ids, fmt.Sprintf("v%d", i))
			}
			got, err := c.Durations(context.Background(), ids)

			Convey("Then the lookup is split in pages of fifty", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 60)
				So(calls, ShouldHaveLength, 2)
				So(strings.Count(calls[0], ","), ShouldEqual, 49)
			})
		})

		Convey("When the client has no key", func() {
			_, err := youtube.New(youtube.WithBaseURL(srv.URL)).Durations(context.Background(), []string{"a"})

			Convey("Then the call is refused", func() {
				So(errors.Is(err, youtube.ErrNoAPIKey), ShouldBeTrue)
			})
		})
	})
}
