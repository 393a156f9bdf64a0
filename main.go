// The main package for the wikifilm-crawler executable.
package main

import (
	"github.com/JakeFAU/wikifilm-crawler/cmd"
)

func main() {
	cmd.Execute()
}
