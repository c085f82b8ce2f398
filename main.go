package main

import "github.com/vegaexperiences/ms-go-billing/cmd"

func main() {
	cmd.Execute()
}
