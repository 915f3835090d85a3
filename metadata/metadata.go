// Package metadata loads the descriptor tables of a study: sample, gene and
// event metadata. Each is optional. A Bundle holds whatever was loaded, with
// an explicit Slot per kind so that "not provided" is never confused with an
// empty table.
package metadata

import (
	"context"

	"go.uber.org/zap"

	"github.com/carbocation/flotilla"
	"github.com/carbocation/flotilla/table"
)

// TableLoader is the capability MetaData needs to fetch one table.
// *flotilla.Loader satisfies it.
type TableLoader interface {
	Load(ctx context.Context, spec flotilla.LoadSpec) (*table.Table, error)
}

type MetaData struct {
	loader TableLoader
	logger *zap.Logger
}

func New(loader TableLoader, logger *zap.Logger) *MetaData {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaData{loader: loader, logger: logger}
}

// Get loads each descriptor whose spec is non-nil, in the order sample, event,
// gene. A nil spec leaves its slot Absent without any I/O, and the expression
// slot is always Absent here. Loading is all or nothing: on the first failure
// the error is logged and returned, and no bundle is returned.
func (m *MetaData) Get(ctx context.Context, sample, gene, event *flotilla.LoadSpec) (*Bundle, error) {
	var out Bundle

	for _, v := range []struct {
		kind Kind
		spec *flotilla.LoadSpec
		slot *Slot
	}{
		{Sample, sample, &out.sample},
		{Event, event, &out.event},
		{Gene, gene, &out.gene},
	} {
		if v.spec == nil {
			continue
		}

		t, err := m.loader.Load(ctx, *v.spec)
		if err != nil {
			m.logger.Error("error loading descriptors",
				zap.Stringer("kind", v.kind),
				zap.String("location", v.spec.Location),
				zap.Error(err))
			return nil, err
		}
		*v.slot = Present(t)

		m.logger.Info("loaded descriptors",
			zap.Stringer("kind", v.kind),
			zap.Int("rows", t.NRows()),
			zap.Int("columns", t.NCols()))
	}

	return &out, nil
}
