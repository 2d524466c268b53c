package blog

import "errors"

// Sentinel errors for the blog service layer.
var (
	ErrMissingFields = errors.New("title, slug and content are required")
	ErrDuplicateSlug = errors.New("slug already exists")
	ErrInvalidStatus = errors.New("status must be draft or published")
	ErrFileRequired  = errors.New("file is required")
	ErrFileTooLarge  = errors.New("file exceeds the upload size limit")
)
