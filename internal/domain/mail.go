package domain

const (
	MailTypeWelcome             = "welcome"
	MailTypeApplicationAccepted = "application_accepted"
	MailTypeApplicationRejected = "application_rejected"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type WelcomeMailData struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	AppURL   string `json:"appURL"`
}

type ApplicationResultMailData struct {
	Username  string `json:"username"`
	Business  string `json:"business"`
	RoleName  string `json:"roleName"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	AppURL    string `json:"appURL"`
}
