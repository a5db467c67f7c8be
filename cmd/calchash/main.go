// Command calchash computes SHA-256 digests of every file under a directory
// in parallel and reports hashing throughput per CPU second.
package main

import "os"

func main() {
	if Execute() != nil {
		os.Exit(1)
	}
}
