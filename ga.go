package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/jwaldrip/odin/cli"

	"ga/lrasm"
)

const Kmerdef = 203

type GAArgs struct {
	cfg         string
	cpuproffile string
	kmer        int
	prefix      string
	numCPU      int
	cfSize      int64
}

var app = cli.New("1.0.0", "Graph Assembler for complex genome", func(c cli.Command) {})

func init() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6090", nil))
	}()
	app.DefineStringFlag("C", "ga.cfg", "configure file")
	app.DefineStringFlag("cpuprofile", "cpu.prof", "write cpu profile to file")
	app.DefineIntFlag("K", Kmerdef, "kmer length")
	app.DefineStringFlag("p", "./test/t20150708/K203", "prefix of the output file")
	app.DefineIntFlag("t", 1, "number of CPU used")

	// long-read overlap detection and greedy contig extension
	lr := app.DefineSubCommand("lrasm", "find long read overlaps and assemble contig paths", lrasm.Lrasm)
	{
		lr.DefineStringFlag("ReadsFile", "ONT.fa", "long reads FASTA file")
		lr.DefineIntFlag("MinOverlap", 1000, "minimum accepted overlap length")
		lr.DefineIntFlag("MaxJump", 1500, "maximum positional jump allowed inside one chain")
		lr.DefineIntFlag("MaxOverhang", 1000, "maximum unaligned tail allowed when CheckOverhang is set")
		lr.DefineBoolFlag("CheckOverhang", true, "reject overlaps with a long unaligned tail")
		lr.DefineIntFlag("MaxCurOverlaps", 0, "maximum overlaps kept per query read, 0 for unlimited")
		lr.DefineBoolFlag("KeepAlignment", false, "retain sparse kmer alignment anchors on each overlap")
		lr.DefineBoolFlag("UniqueExtensions", false, "keep only the single best overlap per target read")
		lr.DefineIntFlag("MinKmerFreq", 2, "minimum kmer frequency to be considered solid")
		lr.DefineIntFlag("MaxKmerFreq", 100, "maximum kmer frequency to be considered solid")
		lr.DefineBoolFlag("Graph", false, "output a dot graph of the assembled contig paths")
	}
}

func main() {
	app.Start()
}
