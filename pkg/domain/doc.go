/*
Package domain contains the core models of the tick dialogue engine.

It defines the static story configuration (a hierarchical state machine with the
actions bound to its states), the per-conversation Session snapshot and the user
actions that drive a turn. This package is kept pure and free of I/O so that the
processor, the planner and every adapter share one vocabulary.

# Key Entities

  - Configuration: the immutable story document (states, actions, contexts, unknown answers).
  - State: a node of the state tree with its transition table.
  - Action: the business step bound to a state (answer, handler, contexts, trigger, final flag).
  - Session: the value-like snapshot of a conversation, replaced in full on every turn.
  - UserAction: the intent or trigger recognized for the turn, plus extracted contexts.
*/
package domain
