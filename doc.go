/*
Package tick is a dialogue execution engine for goal-driven conversational bots.

A story declares a hierarchical state machine whose leaves are actions. Each
action consumes and produces named contexts. On every user turn the engine resolves
the recognized intent to a primary objective, plans the secondary actions whose
outputs satisfy the objective's inputs, and executes them in order: answers are
delivered through a Sender, business logic runs through a HandlerRepository, and
the conversation state is persisted as a Session between turns.

# Concept

The engine never talks to users nor recognizes intents itself. The host (a chat
connector, an HTTP service, an agent tool) feeds one UserAction per turn and
relays the messages. This Hexagonal Architecture keeps the dialogue logic
embeddable anywhere.

# Key Features

  - Deterministic Planning: the same story, session and input always yield the same plan.
  - Unknown-intent Recovery: per-action fallbacks with retry budgets and exit actions.
  - Durable Sessions: memory, file, SQLite and Redis stores, with per-conversation locking.
  - Strict Contracts: stories are validated as a whole before the first turn.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/tick"
		"github.com/aretw0/tick/pkg/adapters/sender"
		"github.com/aretw0/tick/pkg/domain"
	)

	func main() {
		cfg, err := tick.ParseFile("stories/game.yaml")
		if err != nil {
			log.Fatal(err)
		}

		labels := sender.Labels{"Bonjour": "Bonjour humain !"}
		eng, err := tick.New(cfg, tick.WithSender(sender.NewWriter(os.Stdout, labels)))
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		res, err := eng.Process(ctx, "conversation-1", domain.Intent("bonjourRobot", nil))
		if err != nil {
			log.Fatal(err)
		}
		if res.Finished {
			log.Println("End of conversation.")
		}
	}
*/
package tick
