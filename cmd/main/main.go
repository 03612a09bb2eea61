// Command stockdash serves the stock dashboard and offers one-off quote
// lookups.
//
//	stockdash serve --config config/default.yaml
//	stockdash quote AAPL
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
