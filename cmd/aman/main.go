package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/docopt/docopt-go"
	log "github.com/sirupsen/logrus"

	"github.com/t7a/assetman"
)

func init() {
	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(log.DebugLevel)
	}
}

type Opts struct {
	Gather  bool
	State   bool
	Rootdir string   `docopt:"-r"`
	Source  string   `docopt:"-s"`
	Flavor  string   `docopt:"-f"`
	Token   string   `docopt:"-t"`
	Package []string `docopt:"<package>"`
}

func main() {
	// see https://github.com/google/go-cmdtest
	os.Exit(run())
}

func run() (rc int) {

	usage := `assetman

Usage:
  aman gather -s <source> [-r <rootdir>] [-f <flavor>] [-t <token>] <package>...
  aman state [-r <rootdir>]

Options:
  -h --help     Show this screen.
  --version     Show version.
  -r <rootdir>  Root directory [default: .].
  -s <source>   Asset server base URL.
  -f <flavor>   Package flavor [default: generic].
  -t <token>    Account token.
`
	parser := &docopt.Parser{OptionsFirst: false}
	o, _ := parser.ParseArgs(usage, os.Args[1:], "0.1")
	var opts Opts
	err := o.Bind(&opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 22
	}
	log.Debug(opts)

	switch true {
	case opts.Gather:
		return gather(opts)
	case opts.State:
		return dumpState(opts)
	}
	return 0
}

func gather(opts Opts) (rc int) {
	aman, err := assetman.Open(opts.Rootdir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer aman.Close()
	aman.Source = opts.Source
	aman.Progress = &assetman.Reporter{Out: os.Stdout}

	g := aman.LaunchGather(opts.Package, assetman.PackageFlavor(opts.Flavor), opts.Token)
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("gather complete")
	return 0
}

func dumpState(opts Opts) (rc int) {
	aman, err := assetman.Open(opts.Rootdir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	files := aman.State().Files
	if len(files) == 0 {
		fmt.Println("no files tracked")
		return 0
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
	return 0
}
