package service

import (
	"time"

	"github.com/okian/icaoscore/internal/domain/access"
	"github.com/okian/icaoscore/internal/domain/aggregate"
	"github.com/okian/icaoscore/internal/domain/model"
)

// View is everything derived from one store snapshot. Views are
// immutable and replaced as a whole on every delivery.
type View struct {
	Entries   []model.Entry     // newest first
	Summary   aggregate.Summary // over every entry
	UpdatedAt time.Time
}

// For returns the entries visible to s, optionally anonymized.
func (v View) For(s access.Session, anonymize bool) []model.Entry {
	out := aggregate.Visible(v.Entries, s)
	if anonymize {
		out = aggregate.Anonymize(out)
	}
	return out
}

func emptyView() *View {
	return &View{
		Entries: make([]model.Entry, 0),
		Summary: aggregate.Summarize(nil),
	}
}
