package asmopt

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "lrasm.cfg")
	if err := os.WriteFile(fn, []byte(body), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return fn
}

func TestParseConfigReadsKnownFields(t *testing.T) {
	fn := writeConfig(t, "[assembly]\n"+
		"kmer_size = 17\n"+
		"num_threads = 4\n"+
		"min_kmer_freq = 3\n"+
		"max_kmer_freq = 200\n"+
		"overlap_divergence_rate = 0.25\n")

	params, cfg, err := ParseConfig(fn)
	if err != nil {
		t.Fatalf("ParseConfig returned err: %v", err)
	}
	if params.KmerSize != 17 {
		t.Fatalf("KmerSize = %d, want 17", params.KmerSize)
	}
	if params.NumThreads != 4 {
		t.Fatalf("NumThreads = %d, want 4", params.NumThreads)
	}
	if params.MinFreq != 3 || params.MaxFreq != 200 {
		t.Fatalf("MinFreq/MaxFreq = %d/%d, want 3/200", params.MinFreq, params.MaxFreq)
	}
	if cfg.OverlapDivergenceRate != 0.25 {
		t.Fatalf("OverlapDivergenceRate = %v, want 0.25", cfg.OverlapDivergenceRate)
	}
}

func TestParseConfigDefaultsMissingFields(t *testing.T) {
	fn := writeConfig(t, "[assembly]\nkmer_size = 21\n")
	params, cfg, err := ParseConfig(fn)
	if err != nil {
		t.Fatalf("ParseConfig returned err: %v", err)
	}
	if params.NumThreads != 1 {
		t.Fatalf("NumThreads default = %d, want 1", params.NumThreads)
	}
	if cfg.OverlapDivergenceRate != 0.3 {
		t.Fatalf("OverlapDivergenceRate default = %v, want 0.3", cfg.OverlapDivergenceRate)
	}
}
