package service_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/icaoscore/internal/adapters/repository"
	service "github.com/okian/icaoscore/internal/app"
	"github.com/okian/icaoscore/internal/domain/access"
	"github.com/okian/icaoscore/internal/domain/form"
	"github.com/okian/icaoscore/internal/domain/model"
	"github.com/okian/icaoscore/internal/domain/rubric"
	"github.com/okian/icaoscore/internal/export"
	"github.com/okian/icaoscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var (
	trainer = access.Session{UserID: "t-1", Role: access.RoleTrainer}
	viewer  = access.Session{UserID: "v-1", Role: access.RoleViewer}
	fixedAt = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
)

// flakyStore wraps a memory store, counts calls, and fails chosen ids.
type flakyStore struct {
	*repository.MemoryStore
	failCreate bool
	failIDs    map[string]bool
	deletes    atomic.Int32
	creates    atomic.Int32
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: repository.NewMemoryStore(), failIDs: map[string]bool{}}
}

func (f *flakyStore) Create(ctx context.Context, d model.Draft) (string, error) {
	f.creates.Add(1)
	if f.failCreate {
		return "", errors.New("write refused")
	}
	return f.MemoryStore.Create(ctx, d)
}

func (f *flakyStore) DeleteByID(ctx context.Context, id string) error {
	f.deletes.Add(1)
	if f.failIDs[id] {
		return errors.New("delete refused")
	}
	return f.MemoryStore.DeleteByID(ctx, id)
}

func completeForm(name string, levels ...rubric.Level) form.State {
	st := form.Initial()
	st, _ = form.Reduce(st, form.RaterNameEdited{Value: name})
	for i, l := range levels {
		st, _ = form.Reduce(st, form.ScoreSet{Criterion: rubric.Criterion(i), Level: l})
	}
	return st
}

func startService(store repository.Store) *service.Service {
	svc := service.New(
		service.WithStore(store),
		service.WithLocation(time.UTC),
		service.WithClock(func() time.Time { return fixedAt }),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func mustSubmit(svc *service.Service, sess access.Session, name string) string {
	res, err := svc.Submit(context.Background(), sess, completeForm(name, 2, 3, 4, 5, 6, 2), "")
	So(err, ShouldBeNil)
	return res.ID
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("When it is not started", func() {
			_, err := svc.Submit(context.Background(), viewer, completeForm("Ana", 1, 1, 1, 1, 1, 1), "")
			_, werr := svc.Watch(context.Background())

			Convey("Then operations needing the store fail", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(werr, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
			svc.Stop()

			Convey("Then it reports stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given a store with existing entries", t, func() {
		store := repository.NewMemoryStore(repository.WithEntries(
			model.Entry{ID: "old", RaterName: "Ana", Scores: model.Scores{3, 3, 3, 3, 3, 3}, Timestamp: 1, UserID: "v-1"},
		))
		svc := startService(store)
		defer svc.Stop()

		Convey("Then the first snapshot is applied during Start", func() {
			So(svc.Snapshot().Entries, ShouldHaveLength, 1)
			So(svc.Snapshot().Summary.Count, ShouldEqual, 1)
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := newFlakyStore()
		svc := startService(store)
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a complete form is submitted", func() {
			st := completeForm(" Ana ", 2, 3, 4, 5, 6, 2)
			st, _ = form.Reduce(st, form.CandidateIDEdited{Value: "C1"})
			res, err := svc.Submit(ctx, viewer, st, "")

			Convey("Then the entry is persisted and the form resets", func() {
				So(err, ShouldBeNil)
				So(res.ID, ShouldNotBeEmpty)
				So(res.State.Acknowledged, ShouldBeTrue)
				So(res.State.RaterName, ShouldEqual, "")
				So(res.State.Complete(), ShouldBeFalse)

				entries := svc.Entries(ctx, viewer, false)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].RaterName, ShouldEqual, "Ana")
				So(entries[0].CandidateID, ShouldEqual, "C1")
				So(entries[0].UserID, ShouldEqual, viewer.UserID)
				So(entries[0].Timestamp, ShouldEqual, fixedAt.UnixMilli())
				So(entries[0].Overall(), ShouldEqual, 2)
			})
		})

		Convey("When the rater name is blank", func() {
			res, err := svc.Submit(ctx, viewer, completeForm("  ", 1, 2, 3, 4, 5, 6), "")

			Convey("Then it is rejected before the store", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				So(res.State.ShowErrors, ShouldBeTrue)
				So(res.State.Notice, ShouldEqual, form.NoticeNameRequired)
				So(store.creates.Load(), ShouldEqual, 0)
			})
		})

		Convey("When a score is missing", func() {
			res, err := svc.Submit(ctx, viewer, completeForm("Ana", 1, 2, 3, 4, 5), "")

			Convey("Then it is rejected with the scores notice", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				So(res.State.Notice, ShouldEqual, form.NoticeScoresRequired)
				So(store.creates.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the store refuses the write", func() {
			store.failCreate = true
			st := completeForm("Ana", 1, 2, 3, 4, 5, 6)
			res, err := svc.Submit(ctx, viewer, st, "key-1")

			Convey("Then the form is kept with a notice", func() {
				So(errors.Is(err, service.ErrStore), ShouldBeTrue)
				So(res.State.Notice, ShouldEqual, form.NoticeStoreFailed)
				So(res.State.RaterName, ShouldEqual, "Ana")
				So(res.State.Complete(), ShouldBeTrue)
			})

			Convey("And a retry with the same key reaches the store", func() {
				store.failCreate = false
				retry, err := svc.Submit(ctx, viewer, st, "key-1")
				So(err, ShouldBeNil)
				So(retry.ID, ShouldNotBeEmpty)
				So(store.creates.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the same idempotency key is submitted twice", func() {
			st := completeForm("Ana", 1, 2, 3, 4, 5, 6)
			first, err := svc.Submit(ctx, viewer, st, "key-2")
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, viewer, st, "key-2")

			Convey("Then only one entry is created", func() {
				So(err, ShouldBeNil)
				So(second.Replayed, ShouldBeTrue)
				So(second.ID, ShouldEqual, first.ID)
				So(store.creates.Load(), ShouldEqual, 1)
				So(svc.Snapshot().Entries, ShouldHaveLength, 1)
			})
		})

		Convey("When two users submit under the same idempotency key", func() {
			other := access.Session{UserID: "v-2", Role: access.RoleViewer}
			first, err := svc.Submit(ctx, viewer, completeForm("Ana", 1, 2, 3, 4, 5, 6), "shared")
			So(err, ShouldBeNil)
			second, err := svc.Submit(ctx, other, completeForm("Ben", 6, 5, 4, 3, 2, 1), "shared")

			Convey("Then each user gets their own entry", func() {
				So(err, ShouldBeNil)
				So(second.Replayed, ShouldBeFalse)
				So(second.ID, ShouldNotEqual, first.ID)
				So(store.creates.Load(), ShouldEqual, 2)

				mine := svc.Entries(ctx, other, false)
				So(mine, ShouldHaveLength, 1)
				So(mine[0].RaterName, ShouldEqual, "Ben")
			})
		})
	})
}

func TestService_Visibility(t *testing.T) {
	Convey("Given entries from two users", t, func() {
		svc := startService(repository.NewMemoryStore())
		defer svc.Stop()
		ctx := context.Background()

		mustSubmit(svc, viewer, "Ana")
		mustSubmit(svc, access.Session{UserID: "v-2"}, "Ben")

		Convey("Then a viewer sees only their own", func() {
			got := svc.Entries(ctx, viewer, false)
			So(got, ShouldHaveLength, 1)
			So(got[0].RaterName, ShouldEqual, "Ana")
		})

		Convey("Then a trainer sees everything", func() {
			So(svc.Entries(ctx, trainer, false), ShouldHaveLength, 2)
		})

		Convey("Then the anonymized trainer view hides names", func() {
			for i, e := range svc.Entries(ctx, trainer, true) {
				So(e.RaterName, ShouldEqual, "User "+string(rune('1'+i)))
			}
		})

		Convey("Then stats are trainer-only", func() {
			_, err := svc.Summary(ctx, viewer)
			So(errors.Is(err, service.ErrForbidden), ShouldBeTrue)

			sum, err := svc.Summary(ctx, trainer)
			So(err, ShouldBeNil)
			So(sum.Count, ShouldEqual, 2)
			So(sum.OverallDistribution.Count(2), ShouldEqual, 2)
		})
	})
}

func TestService_Delete(t *testing.T) {
	Convey("Given a service with one entry", t, func() {
		store := newFlakyStore()
		svc := startService(store)
		defer svc.Stop()
		ctx := context.Background()
		id := mustSubmit(svc, viewer, "Ana")

		Convey("When a viewer deletes", func() {
			err := svc.Delete(ctx, viewer, id, true)

			Convey("Then it is forbidden", func() {
				So(errors.Is(err, service.ErrForbidden), ShouldBeTrue)
				So(store.deletes.Load(), ShouldEqual, 0)
			})
		})

		Convey("When a trainer deletes without confirmation", func() {
			err := svc.Delete(ctx, trainer, id, false)

			Convey("Then the prompt is returned and nothing is deleted", func() {
				var ce *service.ConfirmationError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Prompt, ShouldEqual, service.PromptDeleteOne)
				So(errors.Is(err, service.ErrConfirmationRequired), ShouldBeTrue)
				So(store.deletes.Load(), ShouldEqual, 0)
			})
		})

		Convey("When a trainer confirms", func() {
			So(svc.Delete(ctx, trainer, id, true), ShouldBeNil)

			Convey("Then the entry disappears from the view", func() {
				So(svc.Snapshot().Entries, ShouldBeEmpty)
			})
		})

		Convey("When the store fails", func() {
			store.failIDs[id] = true
			err := svc.Delete(ctx, trainer, id, true)
			So(errors.Is(err, service.ErrStore), ShouldBeTrue)
		})
	})
}

func TestService_BulkDelete(t *testing.T) {
	Convey("Given a service with three entries", t, func() {
		store := newFlakyStore()
		svc := startService(store)
		defer svc.Stop()
		ctx := context.Background()
		ids := []string{mustSubmit(svc, viewer, "A"), mustSubmit(svc, viewer, "B"), mustSubmit(svc, viewer, "C")}

		Convey("When the selection is empty", func() {
			res, err := svc.BulkDelete(ctx, trainer, nil, true)

			Convey("Then no store call is made", func() {
				So(err, ShouldBeNil)
				So(res.Notice, ShouldEqual, service.NoticeNoneSelected)
				So(store.deletes.Load(), ShouldEqual, 0)
			})
		})

		Convey("When not confirmed", func() {
			_, err := svc.BulkDelete(ctx, trainer, append(ids, ids[0]), false)

			Convey("Then the prompt counts unique ids", func() {
				var ce *service.ConfirmationError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Prompt, ShouldEqual, "Delete 3 selected entries?")
				So(store.deletes.Load(), ShouldEqual, 0)
			})
		})

		Convey("When confirmed", func() {
			res, err := svc.BulkDelete(ctx, trainer, ids, true)

			Convey("Then every entry is deleted and the selection cleared", func() {
				So(err, ShouldBeNil)
				So(res.Cleared, ShouldBeTrue)
				So(res.Requested, ShouldEqual, 3)
				So(store.deletes.Load(), ShouldEqual, 3)
				So(svc.Snapshot().Entries, ShouldBeEmpty)
			})
		})

		Convey("When one delete fails", func() {
			store.failIDs[ids[1]] = true
			res, err := svc.BulkDelete(ctx, trainer, ids, true)

			Convey("Then the siblings still complete and the error is reported", func() {
				So(errors.Is(err, service.ErrStore), ShouldBeTrue)
				So(res.Cleared, ShouldBeFalse)
				So(store.deletes.Load(), ShouldEqual, 3)
				remaining := svc.Snapshot().Entries
				So(remaining, ShouldHaveLength, 1)
				So(remaining[0].ID, ShouldEqual, ids[1])
			})
		})

		Convey("When a viewer tries", func() {
			_, err := svc.BulkDelete(ctx, viewer, ids, true)
			So(errors.Is(err, service.ErrForbidden), ShouldBeTrue)
		})
	})
}

func TestService_Exports(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(repository.NewMemoryStore())
		defer svc.Stop()
		ctx := context.Background()

		Convey("When exporting with no entries", func() {
			_, err := svc.ExportCSV(ctx, trainer)

			Convey("Then there is no data", func() {
				So(errors.Is(err, export.ErrNoData), ShouldBeTrue)
			})
		})

		Convey("When exporting as a viewer", func() {
			_, err := svc.ExportCSV(ctx, viewer)
			So(errors.Is(err, service.ErrForbidden), ShouldBeTrue)
		})

		Convey("When entries exist", func() {
			mustSubmit(svc, viewer, "Ana")

			Convey("Then CSV names the file by date", func() {
				art, err := svc.ExportCSV(ctx, trainer)
				So(err, ShouldBeNil)
				So(art.Filename, ShouldEqual, "icao_scores_2024-03-05.csv")
				So(art.ContentType, ShouldEqual, export.MIMECSV)
				So(strings.Contains(string(art.Body), `"Ana","2","3","4","5","6","2","2"`), ShouldBeTrue)
			})

			Convey("Then XLSX and the chart render", func() {
				x, err := svc.ExportXLSX(ctx, trainer)
				So(err, ShouldBeNil)
				So(x.ContentType, ShouldEqual, export.MIMEXLSX)

				c := rubric.Fluency
				png, err := svc.Chart(ctx, trainer, &c)
				So(err, ShouldBeNil)
				So(png.ContentType, ShouldEqual, export.MIMEPNG)

				_, err = svc.Chart(ctx, viewer, nil)
				So(errors.Is(err, service.ErrForbidden), ShouldBeTrue)
			})
		})
	})
}

func TestService_Watch(t *testing.T) {
	Convey("Given a watcher attached to a started service", t, func() {
		svc := startService(repository.NewMemoryStore())
		defer svc.Stop()
		ctx := context.Background()

		sub, err := svc.Watch(ctx)
		So(err, ShouldBeNil)
		defer sub.Close()

		Convey("When an entry is submitted", func() {
			mustSubmit(svc, viewer, "Ana")

			Convey("Then the latest view is delivered", func() {
				var got service.View
				deadline := time.After(time.Second)
			loop:
				for {
					select {
					case v := <-sub.C():
						got = v
						if len(v.Entries) == 1 {
							break loop
						}
					case <-deadline:
						break loop
					}
				}
				So(got.Entries, ShouldHaveLength, 1)
				So(got.For(viewer, false), ShouldHaveLength, 1)
				So(got.For(access.Session{UserID: "other"}, false), ShouldBeEmpty)
			})
		})
	})
}
