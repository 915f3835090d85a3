// Package flotilla loads the tables that make up a gene-expression and
// splicing study: expression and splicing matrices, and the sample, gene and
// event descriptors that annotate them.
//
// A table is located by a string. Plain paths (with ~ expansion), http(s)
// URLs and gs:// objects are read as delimited text, transparently
// decompressed if gzip, zip, xz, bzip2 or zlib compressed. sqlite://path?table=t
// and bq://project/dataset.table read database tables. See Loader and
// LoadSpec.
//
// Assembly of a study from these tables lives in the study package.
package flotilla
