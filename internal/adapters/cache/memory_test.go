package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/AlisDesai/SkillBridge-sub001/internal/adapters/cache"
)

func TestMemoryBackend(t *testing.T) {
	Convey("Given a memory backend with a controllable clock", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		backend := cache.NewMemoryBackend(cache.WithClock(clock))
		ctx := context.Background()

		Convey("When a value is set with a TTL", func() {
			So(backend.Set(ctx, "match:u1:abc", []byte("v1"), time.Minute), ShouldBeNil)

			Convey("Then it reads back while live", func() {
				got, err := backend.Get(ctx, "match:u1:abc")
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, "v1")
			})

			Convey("Then it misses once the TTL elapses", func() {
				now = now.Add(time.Minute + time.Second)
				_, err := backend.Get(ctx, "match:u1:abc")
				So(err, ShouldEqual, cache.ErrMiss)
				So(backend.Len(), ShouldEqual, 0)
			})
		})

		Convey("When an unknown key is read", func() {
			_, err := backend.Get(ctx, "match:nobody:xyz")

			Convey("Then the miss sentinel is returned", func() {
				So(err, ShouldEqual, cache.ErrMiss)
			})
		})

		Convey("When keys share a user prefix", func() {
			So(backend.Set(ctx, "match:u1:a", []byte("a"), time.Hour), ShouldBeNil)
			So(backend.Set(ctx, "match:u1:b", []byte("b"), time.Hour), ShouldBeNil)
			So(backend.Set(ctx, "match:u2:c", []byte("c"), time.Hour), ShouldBeNil)

			Convey("Then DeletePrefix removes only that user's entries", func() {
				So(backend.DeletePrefix(ctx, "match:u1:"), ShouldBeNil)
				_, err := backend.Get(ctx, "match:u1:a")
				So(err, ShouldEqual, cache.ErrMiss)
				_, err = backend.Get(ctx, "match:u1:b")
				So(err, ShouldEqual, cache.ErrMiss)
				got, err := backend.Get(ctx, "match:u2:c")
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, "c")
			})
		})

		Convey("When the backend is closed", func() {
			So(backend.Set(ctx, "k", []byte("v"), time.Hour), ShouldBeNil)
			So(backend.Close(), ShouldBeNil)

			Convey("Then further operations report closed", func() {
				_, err := backend.Get(ctx, "k")
				So(err, ShouldEqual, cache.ErrClosed)
				So(backend.Set(ctx, "k2", []byte("v"), time.Hour), ShouldEqual, cache.ErrClosed)
				So(backend.Delete(ctx, "k"), ShouldEqual, cache.ErrClosed)
			})
		})
	})
}

func TestMemoryBackendEviction(t *testing.T) {
	Convey("Given a memory backend capped at ten entries", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		backend := cache.NewMemoryBackend(cache.WithCapacity(10), cache.WithClock(clock))
		ctx := context.Background()

		Convey("When an eleventh live entry arrives", func() {
			for i := 0; i < 10; i++ {
				So(backend.Set(ctx, fmt.Sprintf("k-%d", i), []byte("v"), time.Hour), ShouldBeNil)
			}
			So(backend.Set(ctx, "k-10", []byte("v"), time.Hour), ShouldBeNil)

			Convey("Then the oldest 30% were evicted to make room", func() {
				So(backend.Evictions(), ShouldEqual, 3)
				So(backend.Len(), ShouldEqual, 8)
				for i := 0; i < 3; i++ {
					_, err := backend.Get(ctx, fmt.Sprintf("k-%d", i))
					So(err, ShouldEqual, cache.ErrMiss)
				}
				_, err := backend.Get(ctx, "k-3")
				So(err, ShouldBeNil)
				_, err = backend.Get(ctx, "k-10")
				So(err, ShouldBeNil)
			})
		})

		Convey("When expired entries can be purged instead", func() {
			for i := 0; i < 5; i++ {
				So(backend.Set(ctx, fmt.Sprintf("short-%d", i), []byte("v"), time.Minute), ShouldBeNil)
			}
			for i := 0; i < 5; i++ {
				So(backend.Set(ctx, fmt.Sprintf("long-%d", i), []byte("v"), time.Hour), ShouldBeNil)
			}
			now = now.Add(2 * time.Minute)
			So(backend.Set(ctx, "new", []byte("v"), time.Hour), ShouldBeNil)

			Convey("Then no live entry pays the eviction price", func() {
				So(backend.Evictions(), ShouldEqual, 0)
				So(backend.Len(), ShouldEqual, 6)
				for i := 0; i < 5; i++ {
					_, err := backend.Get(ctx, fmt.Sprintf("long-%d", i))
					So(err, ShouldBeNil)
				}
			})
		})

		Convey("When an existing key is overwritten at capacity", func() {
			for i := 0; i < 10; i++ {
				So(backend.Set(ctx, fmt.Sprintf("k-%d", i), []byte("v"), time.Hour), ShouldBeNil)
			}
			So(backend.Set(ctx, "k-0", []byte("v2"), time.Hour), ShouldBeNil)

			Convey("Then nothing is evicted", func() {
				So(backend.Evictions(), ShouldEqual, 0)
				So(backend.Len(), ShouldEqual, 10)
				got, err := backend.Get(ctx, "k-0")
				So(err, ShouldBeNil)
				So(string(got), ShouldEqual, "v2")
			})
		})
	})
}
