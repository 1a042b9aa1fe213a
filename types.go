package mediasoup

type H map[string]interface{}

// ConsumerScore is the "score" event data of a consumer.
type ConsumerScore struct {
	// Score of the RTP stream of the consumer.
	Score uint8 `json:"score"`

	// ProducerScore is the score of the currently selected RTP stream of the
	// producer.
	ProducerScore uint8 `json:"producerScore"`

	// ProducerScores are the scores of all RTP streams of the producer, one
	// per encoding.
	ProducerScores []uint8 `json:"producerScores"`
}
