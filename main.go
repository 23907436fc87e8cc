// papo is a single-session terminal chat with an automated responder.
package main

import "github.com/linanwx/papo/cmd"

func main() {
	cmd.Execute()
}
