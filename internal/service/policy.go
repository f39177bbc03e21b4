package service

import "github.com/sakif/photo-gallery/internal/model"

// CanDeleteImage reports whether principal may delete image.
// Only the uploader may.
func CanDeleteImage(principal *model.User, image *model.Image) bool {
	if principal == nil || image == nil {
		return false
	}
	return principal.Username == image.Author
}

// CanDeleteComment reports whether principal may delete comment, which sits
// on image. Both the comment's author and the image's author may: people
// moderate their own gallery.
func CanDeleteComment(principal *model.User, comment *model.Comment, image *model.Image) bool {
	if principal == nil || comment == nil || image == nil {
		return false
	}
	return principal.Username == comment.Author || principal.Username == image.Author
}
