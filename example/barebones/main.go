// barebones is the smallest flotilla project: a params file naming the tables
// of a study, embarked and subset in a few lines.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/carbocation/flotilla/config"
	"github.com/carbocation/flotilla/study"
)

func main() {
	var paramsPath, samples string
	flag.StringVar(&paramsPath, "params", "", "Path to a params file (YAML, JSON or TOML).")
	flag.StringVar(&samples, "samples", "", "Subset expression over the sample metadata, e.g. 'phenotype: Immature BDMC'.")
	flag.Parse()

	if paramsPath == "" {
		flag.PrintDefaults()
		log.Fatalln("No params file provided")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalln(err)
	}
	defer logger.Sync()

	params, err := config.Load(paramsPath)
	if err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()

	st, err := study.FromParams(ctx, params, nil, study.WithLogger(logger))
	if err != nil {
		log.Fatalln(err)
	}
	log.Println(st)

	ids, err := st.SampleSubset(ctx, samples)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println(len(ids), "samples match")

	if st.Expression() == nil {
		return
	}

	t, err := st.Subset(ctx, "expression", samples, "", false)
	if err != nil {
		log.Fatalln(err)
	}
	if err := t.WriteTSV(os.Stdout, "sample_id"); err != nil {
		log.Fatalln(err)
	}
}
