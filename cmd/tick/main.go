// Command tick serves and explores dialogue stories.
package main

func main() {
	Execute()
}
