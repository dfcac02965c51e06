// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
)

type config struct {
	wantRunIn      bool
	wantPartitions bool
	wantMetadata   bool
	wantIndex      bool
	wantAnomalies  bool
}

func main() {
	dumpCmd := flag.NewFlagSet("dump", flag.ExitOnError)
	dumpRunIn := dumpCmd.Bool("runin", false, "Dump run-in bytes")
	dumpPartitions := dumpCmd.Bool("partitions", false, "Dump partition packs")
	dumpMetadata := dumpCmd.Bool("metadata", false, "Dump header metadata object graph")
	dumpIndex := dumpCmd.Bool("index", false, "Dump index table segments")
	dumpAnomalies := dumpCmd.Bool("anomalies", false, "No effect: anomalies are always logged as warnings while reading")
	dumpAll := dumpCmd.Bool("all", false, "Dump everything")

	verCmd := flag.NewFlagSet("version", flag.ExitOnError)

	if len(os.Args) < 2 {
		showHelp()
	}

	switch os.Args[1] {
	case "dump":
		if len(os.Args) < 3 {
			showHelp()
		}
		dumpCmd.Parse(os.Args[3:])

		cfg := config{
			wantRunIn:      *dumpRunIn || *dumpAll,
			wantPartitions: *dumpPartitions || *dumpAll,
			wantMetadata:   *dumpMetadata || *dumpAll,
			wantIndex:      *dumpIndex || *dumpAll,
			wantAnomalies:  *dumpAnomalies || *dumpAll,
		}
		parse(os.Args[2], cfg)

	case "version":
		verCmd.Parse(os.Args[2:])
		fmt.Println("You are using version 0.1.0")
	default:
		showHelp()
	}
}

func showHelp() {
	fmt.Print(
		`
╔╦╗═╗ ╦╔═╗
║║║╔╩╦╝╠╣
╩ ╩╩ ╚═╚

	An MXF (SMPTE 377) container reader and writer.
`)
	fmt.Println("\nAvailable sub-commands: 'dump' or 'version'")
	os.Exit(1)
}
