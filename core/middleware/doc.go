// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - RayID: assigns every incoming request a unique Request ID (RayID), stores it
//     in the context locals and echoes it in the X-Ray-ID response header.
package middleware
