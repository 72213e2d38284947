// Package recognition wraps the remote vision capability that converts
// captured images plus a prompt into free-form text.
//
// The client is a thin gateway: it issues a single chat-completion request
// with the frames attached as data URLs and returns whatever text the model
// produced. It never retries, caches, or transforms the response; retry
// policy belongs to the capture coordinator, and candidate extraction belongs
// to the vin package.
package recognition
