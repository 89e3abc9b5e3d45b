// Command reposync mirrors one or more source Git repositories into
// destination repositories, branch by branch, according to a YAML
// configuration document.
package main

import (
	"os"

	"github.com/clayforge/reposync/cmd/reposync/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
