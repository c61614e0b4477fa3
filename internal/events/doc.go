// Package events provides the event envelope, handlers and publishers used to
// announce committed sales.
//
// Services never publish directly: they write an Event into the transactional
// outbox together with the state change it describes, and the outbox relay
// later hands batches of them to a Publisher. Two publishers exist:
// - KafkaPublisher writes to Kafka topics via segmentio/kafka-go
// - EmitterPublisher decodes the event and fans it out to in-process handlers
package events
