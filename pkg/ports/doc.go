/*
Package ports defines the driven ports (interfaces) of the tick engine.

These interfaces decouple the processor from the embedding application: business
handlers, outbound message delivery, session persistence and configuration sources
are all supplied by the host and can be swapped without touching the core.

# Key Interfaces

  - HandlerRepository: runs the business logic of an action by handler name.
  - Sender: delivers a message to the user, by label id or as plain text.
  - SessionStore: persists the Session snapshot of a conversation between turns.
  - DistributedLocker: serializes turns of one conversation across replicas.
  - ConfigurationLoader: reads story configurations by id.
*/
package ports
