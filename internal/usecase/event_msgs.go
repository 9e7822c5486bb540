package usecase

// Published on RabbitMQ after a successful checkout.
type CreatedMsg struct {
	OrderID  string `json:"orderId"`
	UserID   string `json:"userId"`
	Cents    int64  `json:"cents"`
	Currency string `json:"currency"`
	Items    int    `json:"items"`
}

// Published on Kafka after every effective status transition.
type StatusChangedMsg struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	From    string `json:"from"`
	To      string `json:"to"`
	Source  string `json:"source"` // webhook | reconcile | admin
}
