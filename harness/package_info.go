// Package harness implements the test-session lifecycle for ephemeral event-routing
// infrastructure: a private inbox queue, a routing rule matched to the session's event
// source, and a target binding the two, which a test suite can use to publish a domain
// event and observe every downstream event that a production service emits in reaction.
//
// The entry point is Client, which provisions the architecture (CreateTestArchitecture),
// publishes events (FireEvent), collects delivered messages (GetMessagesFromSQS), and
// tears everything down (DestroyTestArchitecture). The cloud backends are supplied as
// interfaces (MessagingBackend, EventRoutingBackend, IdentityBackend) so tests of the
// harness itself can substitute in-memory fakes; package awsbackend provides the real
// SQS/EventBridge/STS implementations.
package harness
