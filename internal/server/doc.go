// Package server implements the plate watch web application.
//
// The application is a fiber app rendering HTML views from embedded
// templates. An operator sets the plates to watch for and an alert
// recipient, then submits photos from a file upload or a webcam capture.
//
// # Routes
//
//   - GET  /                      watch list form
//   - POST /set_target            replace the watch list and recipient
//   - GET  /detect_license_plate  upload form and webcam capture page
//   - POST /upload_image          scan an image and render the result
//   - GET  /healthz               JSON health report including OCR status
//
// # Image Input
//
// /upload_image reads, in order of preference:
//   - image_file: a multipart file with a non-empty filename
//   - image_data: a data URL from the form body
//   - image_data: a data URL from a JSON body, only when the request's
//     content type is JSON
//
// # Notices
//
// Outcomes are reported as flash notices with one of four categories:
// error, warning, info and success. Flashes survive a redirect through the
// session, whose cookie is encrypted with a key derived from the secret.
//
// # JSON Clients
//
// A request to /upload_image that prefers application/json over text/html
// gets the scan report as JSON instead of a page, and errors as
// {"error": ..., "category": ...} with a 4xx or 5xx status.
//
// # Usage
//
//	srv, err := server.NewServer(
//	    server.WithConfig(cfg),
//	    server.WithLogger(logger),
//	    server.WithScanner(scanService),
//	    server.WithTargets(store),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
