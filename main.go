// The main package for the techjobs executable.
package main

import (
	"github.com/AhmedOthman21/Tech-jobs/cmd"
)

func main() {
	cmd.Execute()
}
