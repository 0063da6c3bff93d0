package types

// NoticeLevel is the severity a Notice is shown with.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-visible message produced while ingesting.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
