package model

import "time"

// Image is the metadata record for one uploaded picture.
//
// Author is the username of the uploader and is immutable. Path is an opaque
// key into the file store, not a filesystem path the client can use.
type Image struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mimetype"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
