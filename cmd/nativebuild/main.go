package main

import "github.com/irbem/nativebuild/cmd/nativebuild/internal"

func main() {
	internal.Execute()
}
