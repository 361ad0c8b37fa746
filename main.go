package main

import "github.com/nextlevelbuilder/faqbot/cmd"

func main() {
	cmd.Execute()
}
