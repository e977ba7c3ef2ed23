/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/synchrony-app/apiserver/cmd"

func main() {
	cmd.Execute()
}
