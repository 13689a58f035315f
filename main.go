// Command bitnum searches for the cheapest expression of every integer built
// from binary literals with at most four zero bits and four one bits.
package main

import "log"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("bitnum: %v", err)
	}
}
