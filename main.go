package main

import "github.com/papapumpkin/casmproj/cmd"

func main() {
	cmd.Execute()
}
