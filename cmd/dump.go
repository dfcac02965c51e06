// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"

	mxf "github.com/saferwall/mxf"
)

func isDirectory(path string) bool {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fileInfo.IsDir()
}

func dumpFile(filename string, cfg config) {
	log.Printf("Processing filename %s", filename)

	sess, err := mxf.Open(filename, mxf.DefaultRegistry, nil)
	if err != nil {
		log.Printf("Error while opening file: %s, reason: %s", filename, err)
		return
	}
	defer sess.Close()

	if cfg.wantRunIn {
		fmt.Printf("run-in (%d bytes): %s\n", len(sess.RunIn), hex.EncodeToString(sess.RunIn))
	}

	part, err := sess.ReadPartition()
	if err != nil {
		log.Printf("Error while reading partition: %s, reason: %s", filename, err)
		return
	}

	if cfg.wantPartitions {
		fmt.Printf("partition kind=%v closed=%v complete=%v KAG=%d thisPartition=%s\n",
			part.Pack.Kind, part.Pack.IsClosed(), part.Pack.IsComplete(),
			part.Pack.KAGSize, part.Pack.ThisPartition)
	}

	if cfg.wantMetadata {
		for _, obj := range part.TopLevelMetadata() {
			name := "Unknown"
			if obj.Type != nil {
				name = obj.Type.Name
			}
			fmt.Printf("metadata set: %s instanceUID=%s\n", name, obj.InstanceUID)
		}
	}

	if cfg.wantIndex {
		segs, err := part.ReadIndex(sess.FileCursor(), 0)
		if err != nil {
			log.Printf("Error while reading index tables: %s", err)
		}
		for _, seg := range segs {
			fmt.Printf("index table segment: bodySID=%d indexSID=%d entries=%d\n",
				seg.BodySID, seg.IndexSID, len(seg.Entries))
		}
	}
}

func parse(filePath string, cfg config) {
	if !isDirectory(filePath) {
		dumpFile(filePath, cfg)
		return
	}

	var fileList []string
	filepath.Walk(filePath, func(path string, f os.FileInfo, err error) error {
		if err == nil && !isDirectory(path) {
			fileList = append(fileList, path)
		}
		return nil
	})
	for _, file := range fileList {
		dumpFile(file, cfg)
	}
}
