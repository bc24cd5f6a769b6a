// Command tabletool composes and runs pipelines of table operators.
package main

import "os"

func main() {
	os.Exit(Execute(os.Args[1:]))
}
