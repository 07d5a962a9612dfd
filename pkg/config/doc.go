// Package config loads route files.
//
// A route file lists the endpoints a router serves, in YAML or JSON:
//
//	version: "1"
//	name: users
//	routes:
//	  - id: get-user
//	    path: /users/{id}
//	    methods: [GET]
//	    response:
//	      statusCode: 200
//	      body: '{"id":"{id}"}'
//	  - id: beta-user
//	    path: /users/{id}
//	    order: -1
//	    headers:
//	      X-Beta: "1"
//	    when: values.id != "0"
//
// Routes marked internal are not routable by path; they exist to be named in
// another route's fanOut list.
//
// Files are loaded with LoadFromFile or LoadGlob and checked against the
// route file JSON Schema with ValidateFile. ImportOpenAPI derives a route
// file from an OpenAPI 3 document.
package config
