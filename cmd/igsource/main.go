// Command igsource sources Instagram media into a node store for static
// site builds.
package main

func main() {
	Execute()
}
