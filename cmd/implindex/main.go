/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command implindex builds implementor indexes from generated fragment trees,
// archives them to DynamoDB and watches trees for regenerated fragments.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
