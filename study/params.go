package study

import (
	"context"

	"go.uber.org/zap"

	"github.com/carbocation/flotilla"
	"github.com/carbocation/flotilla/config"
	"github.com/carbocation/flotilla/metadata"
)

// FromParams embarks a study whose tables are the *_data_dump locations of
// params, read with loader (a default Loader when nil). Named gene lists in
// params are made available to subset expressions unless WithLists is given.
func FromParams(ctx context.Context, params config.Params, loader *flotilla.Loader, opts ...Option) (*Study, error) {
	o := newOptions(opts)

	if loader == nil {
		loader = flotilla.NewLoader(flotilla.WithLogger(o.logger))
	}

	if o.lists == nil && len(params.GeneLists) > 0 {
		opts = append(opts, WithLists(flotilla.NewListLoader(loader, params.GeneLists)))
	}

	metadataSpec := MetadataSpec{
		Sample: params.Spec(params.SampleDescriptorsDataDump),
		Gene:   params.Spec(params.GeneDescriptorsDataDump),
		Event:  params.Spec(params.EventDescriptorsDataDump),
	}
	dataSpec := DataSpec{
		Expression: params.Spec(params.ExpressionDataDump),
		Splicing:   params.Spec(params.SplicingDataDump),
	}

	o.logger.Debug("embarking from params", zap.String("config", params.ConfigPath))

	return Embark(ctx,
		metadataSpec, MetadataFrom(metadata.New(loader, o.logger)),
		dataSpec, DataFrom(loader),
		params, opts...)
}
