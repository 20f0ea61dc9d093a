// Package geo estimates where the server is, from its public IP address.
//
// The estimate is approximate and describes the machine running the
// application, not the camera or the browser that captured the image.
package geo
