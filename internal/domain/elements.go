package domain

// Element identifiers of the submission page.
const (
	ElementURLInput  = "ytUrl"
	ElementSubmit    = "processBtn"
	ElementSubmitTxt = "btnText"
	ElementSpinner   = "loadingSpinner"
	ElementURLError  = "urlError"
)

// Element identifiers of the chat page.
const (
	ElementMessages      = "chatMessages"
	ElementQuestionInput = "questionInput"
	ElementSend          = "sendBtn"
	ElementVideoTitle    = "vTitle"
	ElementVideoAuthor   = "vAuthor"
	ElementVideoThumb    = "vThumb"
)

type Page string

const (
	PageIndex Page = "index"
	PageChat  Page = "chat"
)

func (p Page) IsValid() bool {
	return p == PageIndex || p == PageChat
}
