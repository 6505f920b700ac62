// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/cmd/typesafe"

func main() {
	cmd.Execute()
}
