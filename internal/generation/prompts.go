package generation

import (
	"fmt"
	"strings"

	"github.com/draftforge/draftforge-api/internal/domain"
)

// Instruction templates per content type. The dispatch is a closed switch
// over the domain.ContentType variants: adding a content type means adding
// a case here, and an unknown value falls through to a neutral assistant
// instruction rather than failing the job.
const (
	blogPostOutlineInstruction = `You are an expert content strategist. Create a detailed blog post outline with:
- An engaging title
- Introduction hook
- 5-7 main sections with subsections
- Key points to cover in each section
- Conclusion with call-to-action
Format the outline clearly with headers and bullet points.`

	productDescriptionInstruction = `You are a professional copywriter specializing in e-commerce. Create a compelling product description that:
- Opens with a captivating headline
- Highlights key features and benefits
- Uses persuasive language that appeals to emotions
- Includes technical specifications if relevant
- Ends with a strong call-to-action
Keep it concise but impactful.`

	socialMediaCaptionInstruction = `You are a social media expert. Create an engaging social media caption that:
- Grabs attention in the first line
- Is optimized for engagement
- Includes relevant emojis
- Has a clear call-to-action
- Suggests 3-5 relevant hashtags
Keep it concise and punchy.`

	defaultInstruction = `You are a helpful content assistant. Please generate content based on the user request.`
)

// Instruction returns the system instruction for the given content type.
func Instruction(contentType domain.ContentType) string {
	switch contentType {
	case domain.ContentTypeBlogPostOutline:
		return blogPostOutlineInstruction
	case domain.ContentTypeProductDescription:
		return productDescriptionInstruction
	case domain.ContentTypeSocialMediaCaption:
		return socialMediaCaptionInstruction
	default:
		return defaultInstruction
	}
}

// UserPrompt returns the user-facing half of the request sent to the
// collaborator, framing the raw prompt with the requested content type.
func UserPrompt(prompt string, contentType domain.ContentType) string {
	return fmt.Sprintf("Please create a %s about: %s",
		strings.ToLower(contentType.String()), prompt)
}
