// Package lrasm wires the seqid/readstore/kmeridx/overlap/ovlpcontainer/
// chimera/extend packages together into the "lrasm" subcommand: find
// overlaps among a set of long reads and greedily assemble them into
// contig paths.
package lrasm

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/jwaldrip/odin/cli"

	"ga/asmopt"
	"ga/chimera"
	"ga/extend"
	"ga/kmeridx"
	"ga/overlap"
	"ga/ovlpcontainer"
	"ga/readstore"
	"ga/utils"
)

// Options is lrasm's parsed argument set: the shared global flags
// plus the subcommand's own.
type Options struct {
	utils.ArgsOpt
	MinOverlap       int
	MaxJump          int
	MaxOverhang      int
	CheckOverhang    bool
	MaxCurOverlaps   int
	KeepAlignment    bool
	UniqueExtensions bool
	MinKmerFreq      int
	MaxKmerFreq      int
	ReadsFile        string
	Graph            bool
}

func checkArgs(c cli.Command) (opt Options, succ bool) {
	var ok bool
	opt.MinOverlap, ok = c.Flag("MinOverlap").Get().(int)
	if !ok {
		log.Fatalf("[checkArgs] argument 'MinOverlap': %v set error\n", c.Flag("MinOverlap").String())
	}
	opt.MaxJump, ok = c.Flag("MaxJump").Get().(int)
	if !ok {
		log.Fatalf("[checkArgs] argument 'MaxJump': %v set error\n", c.Flag("MaxJump").String())
	}
	opt.MaxOverhang, ok = c.Flag("MaxOverhang").Get().(int)
	if !ok {
		log.Fatalf("[checkArgs] argument 'MaxOverhang': %v set error\n", c.Flag("MaxOverhang").String())
	}
	opt.CheckOverhang, ok = c.Flag("CheckOverhang").Get().(bool)
	if !ok {
		log.Fatalf("[checkArgs] argument 'CheckOverhang': %v set error\n", c.Flag("CheckOverhang").String())
	}
	opt.MaxCurOverlaps, ok = c.Flag("MaxCurOverlaps").Get().(int)
	if !ok {
		log.Fatalf("[checkArgs] argument 'MaxCurOverlaps': %v set error\n", c.Flag("MaxCurOverlaps").String())
	}
	opt.KeepAlignment, ok = c.Flag("KeepAlignment").Get().(bool)
	if !ok {
		log.Fatalf("[checkArgs] argument 'KeepAlignment': %v set error\n", c.Flag("KeepAlignment").String())
	}
	opt.UniqueExtensions, ok = c.Flag("UniqueExtensions").Get().(bool)
	if !ok {
		log.Fatalf("[checkArgs] argument 'UniqueExtensions': %v set error\n", c.Flag("UniqueExtensions").String())
	}
	opt.MinKmerFreq, ok = c.Flag("MinKmerFreq").Get().(int)
	if !ok {
		log.Fatalf("[checkArgs] argument 'MinKmerFreq': %v set error\n", c.Flag("MinKmerFreq").String())
	}
	opt.MaxKmerFreq, ok = c.Flag("MaxKmerFreq").Get().(int)
	if !ok {
		log.Fatalf("[checkArgs] argument 'MaxKmerFreq': %v set error\n", c.Flag("MaxKmerFreq").String())
	}
	opt.ReadsFile = c.Flag("ReadsFile").String()
	if opt.ReadsFile == "" {
		log.Fatalf("[checkArgs] argument 'ReadsFile' not set\n")
	}
	opt.Graph, ok = c.Flag("Graph").Get().(bool)
	if !ok {
		log.Fatalf("[checkArgs] argument 'Graph': %v set error\n", c.Flag("Graph").String())
	}

	succ = true
	return opt, succ
}

// Lrasm is the "lrasm" subcommand entry point: load reads, build the
// solid-kmer index, find all pairwise overlaps, then greedily extend
// contigs.
func Lrasm(c cli.Command) {
	gOpt, suc := utils.CheckGlobalArgs(c.Parent())
	if !suc {
		log.Fatalf("[Lrasm] check global Arguments error, opt: %v\n", gOpt)
	}
	opt, suc := checkArgs(c)
	if !suc {
		log.Fatalf("[Lrasm] check Arguments error, opt: %v\n", opt)
	}
	opt.ArgsOpt = gOpt
	runtime.GOMAXPROCS(opt.NumCPU)

	_, asmCfg, err := asmopt.ParseConfig(opt.CfgFn)
	if err != nil {
		log.Fatalf("[Lrasm] ParseConfig %s failed, err: %v\n", opt.CfgFn, err)
	}

	fmt.Printf("[Lrasm] reading long reads from %s\n", opt.ReadsFile)
	store := readstore.NewFastaStore(opt.ReadsFile)

	fmt.Printf("[Lrasm] indexing solid %d-mers\n", opt.Kmer)
	index := kmeridx.New(store, opt.Kmer, opt.MinKmerFreq, opt.MaxKmerFreq)

	detectCfg := overlap.Config{
		MinOverlap:        int32(opt.MinOverlap),
		MaxJump:           int32(opt.MaxJump),
		MaxOverhang:       int32(opt.MaxOverhang),
		CheckOverhang:     opt.CheckOverhang,
		MaxCurOverlaps:    opt.MaxCurOverlaps,
		KeepAlignment:     opt.KeepAlignment,
		OverlapDivergence: asmCfg.OverlapDivergenceRate,
		KmerSize:          opt.Kmer,
	}
	detector := overlap.NewDetector(detectCfg, store, index)
	container := ovlpcontainer.New(detector, store, opt.UniqueExtensions)

	fmt.Println("[Lrasm] finding overlaps")
	container.FindAllOverlaps(opt.NumCPU)
	container.BuildIntervalTree()

	chimDetector := chimera.NewDetector(container)
	extender := extend.NewExtender(store, container, chimDetector)

	fmt.Println("[Lrasm] assembling contigs")
	paths := extender.AssembleContigs()
	fmt.Printf("[Lrasm] assembled %d contig paths\n", len(paths))

	writeContigs(opt.Prefix+".lrasm.contigs.fa", store, paths)
	if opt.Graph {
		writeContigGraph(opt.Prefix+".lrasm.contigs.dot", paths)
	}
}

// writeContigs writes one FASTA record per contig path: a
// "contig_<i> circular=<bool> reads=<n>" header, and the first read's
// own sequence as a placeholder contig sequence (no consensus is
// called).
func writeContigs(fn string, store readstore.Store, paths []extend.Path) {
	fp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[writeContigs] create %s failed, err: %v\n", fn, err)
	}
	defer fp.Close()

	for i, path := range paths {
		fmt.Fprintf(fp, ">contig_%d circular=%v reads=%d\n", i, path.Circular, len(path.Reads))
		seq := store.Sequence(path.Reads[0])
		fp.Write(seq)
		fp.WriteString("\n")
	}
}

// writeContigGraph dumps each contig path as a simple linear chain in
// a dot graph, grounded on constructdbg.GraphvizDBGArr's use of
// gographviz for the De Bruijn graph dump.
func writeContigGraph(fn string, paths []extend.Path) {
	g := gographviz.NewGraph()
	g.SetName("G")
	g.SetDir(true)
	g.SetStrict(false)

	for i, path := range paths {
		for j, readID := range path.Reads {
			node := "c" + strconv.Itoa(i) + "_" + strconv.Itoa(j)
			attr := map[string]string{"label": "\"" + readID.String() + "\""}
			g.AddNode("G", node, attr)
			if j > 0 {
				prev := "c" + strconv.Itoa(i) + "_" + strconv.Itoa(j-1)
				g.AddEdge(prev, node, true, nil)
			}
		}
	}

	gfp, err := os.Create(fn)
	if err != nil {
		log.Fatalf("[writeContigGraph] create %s failed, err: %v\n", fn, err)
	}
	defer gfp.Close()
	gfp.WriteString(g.String())
}
