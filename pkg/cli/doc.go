// Package cli provides the moosedocs command-line interface.
//
// # Commands
//
// build: Render the content directory into a static site
//
//	moosedocs build -dir ./doc -clean
//
// serve: Build, serve and rebuild on content changes
//
//	moosedocs serve -dir ./doc -port 8000
//
// check: Report objects and systems without pages, optionally writing stubs
//
//	moosedocs check -dir ./doc -locations framework -stubs
//
// publish: Upload the built site to S3
//
//	moosedocs publish -dir ./doc -bucket docs-site -prefix latest -build
//
// syntax: Print the application syntax
//
//	moosedocs syntax -dir ./doc -path /Adaptivity/Markers -format json
//
// Every command accepts -config (explicit file), -dir (project directory
// searched for moosedocs.yml) and -log-level.
package cli
