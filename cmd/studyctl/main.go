package main

import "github.com/SoarinFerret/StudyTimer/cmd/studyctl/arg"

func main() {
	arg.Execute()
}
