package memoir

type ResponseType string

const (
	ResponseTypePartialText ResponseType = "partial-text"
	ResponseTypeEnd         ResponseType = "end"
	ResponseTypeError       ResponseType = "error"
)

// Response represents a communication unit from a streamed answer to the caller/UI.
type Response struct {
	Content string
	Type    ResponseType
}
