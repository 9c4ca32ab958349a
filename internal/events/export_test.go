package events

// NewWithChannel builds a publisher over a stand-in channel for tests.
func NewWithChannel(ch channel, queue string) *AMQPPublisher {
	return &AMQPPublisher{queue: queue, ch: ch}
}
