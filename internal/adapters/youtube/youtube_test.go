package youtube_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/decktube/internal/adapters/youtube"
	"github.com/okian/decktube/internal/domain/model"
	"github.com/okian/decktube/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

const searchBody = `{
  "items": [
    {
      "id": {"videoId": "vid1"},
      "snippet": {
        "publishedAt": "2025-07-01T12:00:00Z",
        "channelTitle": "B-Rad Gaming",
        "title": "Best Hog Cycle &amp; Tips",
        "description": "hog rider ice spirit",
        "thumbnails": {"medium": {"url": "https://img/m.jpg"}, "high": {"url": "https://img/h.jpg"}}
      }
    },
    {
      "id": {"videoId": "vid2"},
      "snippet": {
        "publishedAt": "2024-01-01T00:00:00Z",
        "channelTitle": "OJ",
        "title": "Ladder push",
        "thumbnails": {"medium": {"url": "https://img/m2.jpg"}}
      }
    },
    {"id": {"channelId": "skip-me"}, "snippet": {"title": "a channel"}}
  ]
}`

func TestSearch(t *testing.T) {
	Convey("Given a fake search endpoint", t, func() {
		var got *http.Request
		status := http.StatusOK
		body := searchBody
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r
			w.WriteHeader(status)
			_, _ = fmt.Fprint(w, body)
		}))
		defer srv.Close()

		c := youtube.New(youtube.WithAPIKey("k"), youtube.WithBaseURL(srv.URL), youtube.WithRateLimit(1000))
		after := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
		s := model.SearchStrategy{
			Query:          "Clash Royale Hog Rider deck",
			ChannelFilter:  "OJ",
			PublishedAfter: after,
			Order:          model.OrderViewCount,
			MaxResults:     80,
			Tier:           model.TierHigh,
		}

		Convey("When searching", func() {
			videos := c.Search(context.Background(), s)

			Convey("Then the request carries the strategy", func() {
				q := got.URL.Query()
				So(got.URL.Path, ShouldEqual, "/search")
				So(q.Get("key"), ShouldEqual, "k")
				So(q.Get("q"), ShouldEqual, "Clash Royale Hog Rider deck channel:OJ")
				So(q.Get("part"), ShouldEqual, "snippet")
				So(q.Get("type"), ShouldEqual, "video")
				So(q.Get("maxResults"), ShouldEqual, "50")
				So(q.Get("order"), ShouldEqual, "viewCount")
				So(q.Get("relevanceLanguage"), ShouldEqual, "en")
				So(q.Get("safeSearch"), ShouldEqual, "none")
				So(q.Get("publishedAfter"), ShouldEqual, "2025-02-15T10:00:00Z")
			})

			Convey("Then items are translated to candidates", func() {
				So(videos, ShouldHaveLength, 2)
				So(videos[0].ID, ShouldEqual, "vid1")
				So(videos[0].Title, ShouldEqual, "Best Hog Cycle & Tips")
				So(videos[0].ThumbnailURL, ShouldEqual, "https://img/h.jpg")
				So(videos[0].PublishedAt.Year(), ShouldEqual, 2025)
				So(videos[1].ThumbnailURL, ShouldEqual, "https://img/m2.jpg")
			})
		})

		Convey("When the upstream fails", func() {
			status = http.StatusForbidden
			videos := c.Search(context.Background(), s)
			_, err := c.SearchStrict(context.Background(), s)

			Convey("Then the pipeline sees an empty list", func() {
				So(videos, ShouldBeEmpty)
				So(errors.Is(err, youtube.ErrUpstreamStatus), ShouldBeTrue)
			})
		})

		Convey("When the payload is malformed", func() {
			body = `{"items": [`
			So(c.Search(context.Background(), s), ShouldBeEmpty)
		})

		Convey("When no api key is configured", func() {
			noKey := youtube.New(youtube.WithBaseURL(srv.URL))
			_, err := noKey.SearchStrict(context.Background(), s)
			So(errors.Is(err, youtube.ErrNoAPIKey), ShouldBeTrue)
		})
	})
}

func captions(text string) string {
	return `<?xml version="1.0" encoding="utf-8" ?><timedtext format="3"><body>` +
		`<p t="0" d="2000">` + text + `</p>` +
		`<p t="2000" d="1500"><s>and the</s><s> log &amp; fireball</s></p>` +
		`</body></timedtext>`
}

func TestTranscripts(t *testing.T) {
	Convey("Given a fake caption endpoint", t, func() {
		var (
			mu    sync.Mutex
			langs = map[string][]string{}
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			id, lang := q.Get("v"), q.Get("lang")
			mu.Lock()
			langs[id] = append(langs[id], lang)
			mu.Unlock()

			switch {
			case q.Get("fmt") != "srv3":
				w.WriteHeader(http.StatusBadRequest)
			case strings.HasPrefix(id, "bad"):
				w.WriteHeader(http.StatusNotFound)
			case id == "gb" && lang != "en-GB":
				_, _ = fmt.Fprint(w, captions("short"))
			default:
				_, _ = fmt.Fprint(w, captions("today we play hog rider with ice spirit and   skeletons"))
			}
		}))
		defer srv.Close()

		c := youtube.New(
			youtube.WithTimedTextURL(srv.URL),
			youtube.WithRateLimit(1000),
			youtube.WithBatching(5, 10*time.Millisecond),
		)

		Convey("When fetching seven ids where two fail", func() {
			ids := []string{"a", "b", "bad1", "c", "d", "bad2", "e"}
			got := c.FetchTranscripts(context.Background(), ids)

			Convey("Then exactly five transcripts are returned", func() {
				So(got, ShouldHaveLength, 5)
				_, ok := got["bad1"]
				So(ok, ShouldBeFalse)
			})

			Convey("Then markup is stripped and whitespace collapsed", func() {
				So(got["a"], ShouldEqual,
					"today we play hog rider with ice spirit and skeletons and the log & fireball")
			})

			Convey("Then failing ids try every language", func() {
				So(langs["bad1"], ShouldResemble, []string{"en", "en-US", "en-GB"})
				So(langs["a"], ShouldResemble, []string{"en"})
			})
		})

		Convey("When only a regional caption track is long enough", func() {
			text, err := c.FetchTranscript(context.Background(), "gb")

			Convey("Then the first substantial language wins", func() {
				So(err, ShouldBeNil)
				So(text, ShouldStartWith, "today we play")
				So(langs["gb"], ShouldResemble, []string{"en", "en-US", "en-GB"})
			})
		})

		Convey("When the video has no captions at all", func() {
			_, err := c.FetchTranscript(context.Background(), "bad3")
			So(errors.Is(err, youtube.ErrNoTranscript), ShouldBeTrue)
		})
	})
}

type span struct{ start, end time.Time }

func TestTranscriptBatching(t *testing.T) {
	Convey("Given a caption endpoint that takes 50ms per video", t, func() {
		var (
			mu       sync.Mutex
			spans    = map[string]span{}
			inFlight int
			peak     int
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.URL.Query().Get("v")
			mu.Lock()
			inFlight++
			peak = max(peak, inFlight)
			started := time.Now()
			mu.Unlock()

			time.Sleep(50 * time.Millisecond)

			mu.Lock()
			inFlight--
			spans[id] = span{start: started, end: time.Now()}
			mu.Unlock()
			_, _ = fmt.Fprint(w, captions("a hog rider cycle deck played start to finish in ladder"))
		}))
		defer srv.Close()

		const delay = 100 * time.Millisecond
		c := youtube.New(
			youtube.WithTimedTextURL(srv.URL),
			youtube.WithRateLimit(10000),
			youtube.WithBatching(3, delay),
		)

		Convey("When six ids are fetched in batches of three", func() {
			first := []string{"a", "b", "c"}
			second := []string{"d", "e", "f"}
			got := c.FetchTranscripts(context.Background(), append(append([]string{}, first...), second...))

			Convey("Then the ids of a batch overlap and the batches do not", func() {
				mu.Lock()
				defer mu.Unlock()
				So(got, ShouldHaveLength, 6)
				So(peak, ShouldEqual, 3)

				var firstEnd, secondStart time.Time
				for _, id := range first {
					if spans[id].end.After(firstEnd) {
						firstEnd = spans[id].end
					}
				}
				for _, id := range second {
					if secondStart.IsZero() || spans[id].start.Before(secondStart) {
						secondStart = spans[id].start
					}
				}
				So(secondStart.Sub(firstEnd) >= delay, ShouldBeTrue)
			})
		})
	})
}

func TestTranscriptTimeout(t *testing.T) {
	Convey("Given a caption endpoint that hangs for one video", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("v") == "hang" {
				select {
				case <-time.After(5 * time.Second):
				case <-r.Context().Done():
					return
				}
			}
			_, _ = fmt.Fprint(w, captions("a hog rider cycle deck played start to finish in ladder"))
		}))
		defer srv.Close()

		c := youtube.New(
			youtube.WithTimedTextURL(srv.URL),
			youtube.WithRateLimit(10000),
			youtube.WithTimeouts(time.Second, 100*time.Millisecond),
			youtube.WithBatching(5, 0),
		)

		Convey("When it is fetched with two healthy videos", func() {
			began := time.Now()
			got := c.FetchTranscripts(context.Background(), []string{"hang", "a", "b"})
			took := time.Since(began)

			Convey("Then the hung id is dropped without stalling the rest", func() {
				So(got, ShouldHaveLength, 2)
				_, ok := got["hang"]
				So(ok, ShouldBeFalse)
				// three languages at 100ms each
				So(took < 2*time.Second, ShouldBeTrue)
			})
		})
	})
}
