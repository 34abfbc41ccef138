package domain

type (
	QuestionId = string
	Category   = string
)

type QuestionStatus string

const (
	StatusPending  QuestionStatus = "pending"
	StatusAnswered QuestionStatus = "answered"
)

// DefaultCategories is used when the config does not list categories.
var DefaultCategories = []Category{
	"General",
	"Prevention",
	"Testing",
	"Treatment",
	"Mental Health",
	"Relationships",
}

// ValidCategory reports whether c is one of the allowed categories.
func ValidCategory(c Category, allowed []Category) bool {
	for _, a := range allowed {
		if a == c {
			return true
		}
	}
	return false
}

// Length limits, in runes, checked before anything is sent.
const (
	QuestionMaxLen = 2000
	AnswerMaxLen   = 5000
)
