// Command pel compiles and runs Programmable Economic Language models.
package main

import "github.com/pel-lang/pel/cmd/pel/cmd"

func main() {
	cmd.Execute()
}
