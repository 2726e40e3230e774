// Command covmerge sums partition histograms into a single coverage file.
//
// Usage:
//
//	covmerge <out-file> <partition-file>...
package main

import (
	"fmt"
	"os"

	"github.com/star/covergrid/internal/coverage"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <out-file> <partition-file>...\n", os.Args[0])
		os.Exit(2)
	}
	out := os.Args[1]

	merged := coverage.NewHistogram()
	for _, path := range os.Args[2:] {
		part := coverage.NewHistogram()
		if err := part.ReadFile(path); err != nil {
			fmt.Println("ERROR reading partition:", err)
			os.Exit(1)
		}
		merged.Merge(part)
		fmt.Printf("merged %s: %d cells\n", path, part.Len())
	}

	if err := merged.WriteFile(out); err != nil {
		fmt.Println("ERROR writing merged histogram:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %d cells total\n", out, merged.Len())
}
