package main

import "github.com/docintake/docintake-backend/cmd/docintake/cmd"

func main() {
	cmd.Execute()
}
