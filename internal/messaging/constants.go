package messaging

const (
	// ExchangeLetterEvents - fanout exchange для событий письма.
	ExchangeLetterEvents = "letter_events"
	// QueueAuthorNotifications - очередь нотификатора автора.
	QueueAuthorNotifications = "author_notifications"

	EventTypeResponseRecorded = "response_recorded"
)
