package study

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/carbocation/flotilla/config"
	"github.com/carbocation/flotilla/query"
)

// DefaultOutlierColumn is the sample metadata column read when dropping
// outliers without an explicit rule.
const DefaultOutlierColumn = "outlier"

// OutlierRule reports whether a sample should be dropped.
type OutlierRule func(sampleID string) bool

// JoinPolicy says what to do with data rows that have no sample metadata.
type JoinPolicy byte

const (
	// JoinTolerate keeps them and logs a warning.
	JoinTolerate JoinPolicy = iota
	// JoinStrict fails with a *table.MissingKeyError.
	JoinStrict
	// JoinIntersect drops them.
	JoinIntersect
)

func (p JoinPolicy) String() string {
	switch p {
	case JoinStrict:
		return config.JoinStrict
	case JoinIntersect:
		return config.JoinIntersect
	}
	return config.JoinTolerate
}

// ParseJoinPolicy reads the join key of config.Params. Empty means
// JoinTolerate.
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch strings.ToLower(s) {
	case "", config.JoinTolerate:
		return JoinTolerate, nil
	case config.JoinStrict:
		return JoinStrict, nil
	case config.JoinIntersect:
		return JoinIntersect, nil
	}
	return JoinTolerate, configErrorf("unknown join policy %q", s)
}

type options struct {
	loadCargo    bool
	dropOutliers bool
	outlierRule  OutlierRule
	join         JoinPolicy
	joinSet      bool
	lists        query.Lists
	logger       *zap.Logger
}

type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		loadCargo: true,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// LoadCargo(false) embarks a Shell study without touching any loader.
func LoadCargo(load bool) Option {
	return func(o *options) { o.loadCargo = load }
}

// DropOutliers removes outlier samples from every data matrix after loading.
func DropOutliers(drop bool) Option {
	return func(o *options) { o.dropOutliers = drop }
}

// WithOutlierRule sets the rule used by DropOutliers. Without one, the
// boolean sample metadata column named by Params.OutlierColumn is used.
func WithOutlierRule(rule OutlierRule) Option {
	return func(o *options) { o.outlierRule = rule }
}

// WithJoinPolicy overrides the join key of the params.
func WithJoinPolicy(p JoinPolicy) Option {
	return func(o *options) {
		o.join = p
		o.joinSet = true
	}
}

// WithLists makes named lists available to subset expressions.
func WithLists(lists query.Lists) Option {
	return func(o *options) { o.lists = lists }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func (o options) String() string {
	return fmt.Sprintf("load_cargo=%t drop_outliers=%t join=%s", o.loadCargo, o.dropOutliers, o.join)
}
