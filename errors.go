package relaymq

import "fmt"

// MessageNotFoundError is returned by Acknowledge and Reject when the given
// message id is not currently present in the queue.
type MessageNotFoundError struct {
	MessageID string
}

func (e *MessageNotFoundError) Error() string {
	return fmt.Sprintf("mq: message not found: %q", e.MessageID)
}

// SerializationError is returned when a configured Serializer fails to
// convert a payload of type T into its stored representation S.
type SerializationError struct {
	Message string
	Cause   error
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mq: serialization failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("mq: serialization failed: %s", e.Message)
}

func (e *SerializationError) Unwrap() error { return e.Cause }

// DeserializationError is returned when a stored representation S cannot be
// converted back into the payload type T.
type DeserializationError struct {
	Message string
	Raw     any
	Cause   error
}

func (e *DeserializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mq: deserialization failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("mq: deserialization failed: %s", e.Message)
}

func (e *DeserializationError) Unwrap() error { return e.Cause }

// QueueAlreadyExistsError is returned by Factory.CreateQueue when the
// requested name is already registered.
type QueueAlreadyExistsError struct {
	QueueName string
}

func (e *QueueAlreadyExistsError) Error() string {
	return fmt.Sprintf("mq: queue already exists: %q", e.QueueName)
}

// QueueDoesNotExistError is returned by Factory.GetQueue and
// Factory.DeleteQueue when the requested name is not registered, and by
// Factory.GetQueue when it is registered under a different type pair.
type QueueDoesNotExistError struct {
	QueueName string
}

func (e *QueueDoesNotExistError) Error() string {
	return fmt.Sprintf("mq: queue does not exist: %q", e.QueueName)
}
