/*
Package handlers maps classified queries onto response bodies.

The Dispatcher owns a tag table compiled at construction: every suffix tag
(-GEO, -SSL, -CARGO, -PIXIV, ...) resolves to one handler method, and
untagged queries fall through to the default WHOIS/registry handler.
Handlers return plain text bodies; the server layer prepends the banner,
applies colour, and normalizes line endings.

Handlers never panic out of Dispatch and never write errors raw into the
response. Failures map onto the errkind taxonomy and renderError turns
them into "%"-commented lines, so a broken upstream degrades one query
instead of the connection.

	           +------------+
	query ---> | Dispatcher | --> handler --> body
	           +------------+        |
	                 |               v
	                 +-------- renderError (on failure)
*/
package handlers
