// SPDX-License-Identifier: MPL-2.0

// Command wesh is a minimal interactive shell with dynamically
// contributed commands, runnable locally or served over SSH.
package main

func main() {
	Execute()
}
