package domain

// ContentType identifies which kind of content a job should produce.
// The set is closed: adding a new kind means adding a constant here and an
// instruction template in the generation package, not comparing strings at
// call sites.
type ContentType string

// Supported content types.
const (
	ContentTypeBlogPostOutline    ContentType = "Blog Post Outline"
	ContentTypeProductDescription ContentType = "Product Description"
	ContentTypeSocialMediaCaption ContentType = "Social Media Caption"
)

// ContentTypes returns all supported content types in a stable order.
func ContentTypes() []ContentType {
	return []ContentType{
		ContentTypeBlogPostOutline,
		ContentTypeProductDescription,
		ContentTypeSocialMediaCaption,
	}
}

// IsValid reports whether the content type is one of the supported values.
func (c ContentType) IsValid() bool {
	switch c {
	case ContentTypeBlogPostOutline, ContentTypeProductDescription, ContentTypeSocialMediaCaption:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the content type.
func (c ContentType) String() string {
	return string(c)
}
