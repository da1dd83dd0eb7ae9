package rabbitmq

const (
	DefaultExchange = "contacts.mail"
	DefaultQueue    = "contacts-api.mail"

	// RoutingKeyMailSend is used for every outbound mail message.
	RoutingKeyMailSend = "mail.send.requested"
)

// MailMessage is the wire payload between the API and the mail worker.
type MailMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}
