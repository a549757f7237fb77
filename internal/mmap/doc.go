// Package mmap maps point files into memory read-only.
//
// Every worker of a run scans the same input file from the start, so the
// file is mapped once per open and shared through the page cache instead of
// being read through kernel buffers by each worker.
//
//	f, err := mmap.Open("points.txt")
//	if err != nil { ... }
//	defer f.Close()
//	data := f.Bytes()
//
// Unix uses mmap(2); Windows uses CreateFileMapping/MapViewOfFile.
package mmap
