// Package main serves as the entry point for the esmconvert application.
// It provides a service for converting ES module syntax into CommonJS-style
// require/exports code, synchronously over HTTP or asynchronously through a
// job queue.
//
//	@title			ES Module Conversion API
//	@version		1.0.0
//	@description	API for converting ECMAScript modules to CommonJS. Modules can be converted synchronously in a single request, or submitted as background jobs that workers process from a queue.
//	@contact.name	esmconvert API Support
//	@contact.email	support@esmconvert.dev
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//	@host			localhost:8080
//	@BasePath		/
package main

import "esmconvert/cmd"

func main() {
	cmd.Execute()
}
