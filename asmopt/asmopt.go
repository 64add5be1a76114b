// Package asmopt holds the long-read assembler's process-wide tunable
// parameters and its flat key=value configuration file reader, the
// same line-oriented format constructcf.ParseCfg uses for the NGS
// pipeline's config.
package asmopt

import (
	"bufio"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// Parameters is the set of values fixed once per assembly run that
// every package in this module reads rather than threading through
// call signatures individually -- KmerSize mirrors Parameters::get()
// in the ported C++.
type Parameters struct {
	KmerSize   int
	NumThreads int
	MinFreq    int
	MaxFreq    int
}

// Config is the tunable overlap-acceptance configuration --
// Config::get("overlap_divergence_rate") in the ported C++.
type Config struct {
	OverlapDivergenceRate float64
}

// ParseConfig reads fn, a flat "key = value" text file (one
// "[section]" marker or "key = value" pair per line, blank lines
// ignored), filling in any keys it recognises. A key that is absent
// or set to 0 takes its default: kmer_size 15, num_threads 1,
// min_kmer_freq 2, max_kmer_freq 1<<20, overlap_divergence_rate 0.3.
func ParseConfig(fn string) (params Parameters, cfg Config, err error) {
	inFile, err := os.Open(fn)
	if err != nil {
		log.Fatalf("[ParseConfig] open %s failed, err: %v\n", fn, err)
	}
	defer inFile.Close()

	reader := bufio.NewReader(inFile)
	eof := false
	for !eof {
		var line string
		line, err = reader.ReadString('\n')
		if err == io.EOF {
			err = nil
			eof = true
		} else if err != nil {
			log.Fatalf("[ParseConfig] read %s failed, err: %v\n", fn, err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "[assembly]":
		case "kmer_size":
			params.KmerSize, err = strconv.Atoi(fields[2])
		case "num_threads":
			params.NumThreads, err = strconv.Atoi(fields[2])
		case "min_kmer_freq":
			params.MinFreq, err = strconv.Atoi(fields[2])
		case "max_kmer_freq":
			params.MaxFreq, err = strconv.Atoi(fields[2])
		case "overlap_divergence_rate":
			cfg.OverlapDivergenceRate, err = strconv.ParseFloat(fields[2], 64)
		}
		if err != nil {
			log.Fatalf("[ParseConfig] parse %s field %q failed, err: %v\n", fn, fields[0], err)
		}
	}

	if params.KmerSize == 0 {
		params.KmerSize = 15
	}
	if params.NumThreads == 0 {
		params.NumThreads = 1
	}
	if params.MinFreq == 0 {
		params.MinFreq = 2
	}
	if params.MaxFreq == 0 {
		params.MaxFreq = 1 << 20
	}
	if cfg.OverlapDivergenceRate == 0 {
		cfg.OverlapDivergenceRate = 0.3
	}
	return params, cfg, nil
}
